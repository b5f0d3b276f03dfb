package renderer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu/gputest"
)

func TestSelectPhysicalDevice(t *testing.T) {
	texturedReq := DefaultRequirements(VertexPosColorTex)

	tests := []struct {
		name    string
		devices func() []*gputest.PhysicalDevice
		req     PhysicalDeviceRequirements
		want    string
	}{
		{
			name: "discrete beats integrated",
			devices: func() []*gputest.PhysicalDevice {
				return []*gputest.PhysicalDevice{
					gputest.NewPhysicalDevice("integrated", gpu.PhysicalDeviceTypeIntegratedGpu),
					gputest.NewPhysicalDevice("discrete", gpu.PhysicalDeviceTypeDiscreteGpu),
				}
			},
			req:  texturedReq,
			want: "discrete",
		},
		{
			name: "integrated beats cpu",
			devices: func() []*gputest.PhysicalDevice {
				return []*gputest.PhysicalDevice{
					gputest.NewPhysicalDevice("cpu", gpu.PhysicalDeviceTypeCpu),
					gputest.NewPhysicalDevice("integrated", gpu.PhysicalDeviceTypeIntegratedGpu),
				}
			},
			req:  texturedReq,
			want: "integrated",
		},
		{
			name: "tie goes to first enumerated",
			devices: func() []*gputest.PhysicalDevice {
				return []*gputest.PhysicalDevice{
					gputest.NewPhysicalDevice("first", gpu.PhysicalDeviceTypeDiscreteGpu),
					gputest.NewPhysicalDevice("second", gpu.PhysicalDeviceTypeDiscreteGpu),
				}
			},
			req:  texturedReq,
			want: "first",
		},
		{
			name: "discrete without anisotropy skipped for textured layouts",
			devices: func() []*gputest.PhysicalDevice {
				d := gputest.NewPhysicalDevice("discrete", gpu.PhysicalDeviceTypeDiscreteGpu)
				d.Feats.SamplerAnisotropy = false
				return []*gputest.PhysicalDevice{d, gputest.NewPhysicalDevice("integrated", gpu.PhysicalDeviceTypeIntegratedGpu)}
			},
			req:  texturedReq,
			want: "integrated",
		},
		{
			name: "anisotropy not needed for untextured layouts",
			devices: func() []*gputest.PhysicalDevice {
				d := gputest.NewPhysicalDevice("discrete", gpu.PhysicalDeviceTypeDiscreteGpu)
				d.Feats.SamplerAnisotropy = false
				return []*gputest.PhysicalDevice{gputest.NewPhysicalDevice("integrated", gpu.PhysicalDeviceTypeIntegratedGpu), d}
			},
			req:  DefaultRequirements(VertexPosColor),
			want: "discrete",
		},
		{
			name: "missing swapchain extension skipped",
			devices: func() []*gputest.PhysicalDevice {
				d := gputest.NewPhysicalDevice("discrete", gpu.PhysicalDeviceTypeDiscreteGpu)
				d.DeviceExts = nil
				return []*gputest.PhysicalDevice{d, gputest.NewPhysicalDevice("other", gpu.PhysicalDeviceTypeOther)}
			},
			req:  texturedReq,
			want: "other",
		},
		{
			name: "no surface formats skipped",
			devices: func() []*gputest.PhysicalDevice {
				d := gputest.NewPhysicalDevice("discrete", gpu.PhysicalDeviceTypeDiscreteGpu)
				d.Formats = nil
				return []*gputest.PhysicalDevice{d, gputest.NewPhysicalDevice("virtual", gpu.PhysicalDeviceTypeVirtualGpu)}
			},
			req:  texturedReq,
			want: "virtual",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance := gputest.NewInstance(tt.devices()...)
			got, err := SelectPhysicalDevice(instance, instance.Surface(), tt.req)
			if err != nil {
				t.Fatalf("SelectPhysicalDevice: %v", err)
			}
			if got.Properties.Name != tt.want {
				t.Errorf("selected %q, want %q", got.Properties.Name, tt.want)
			}
		})
	}
}

func TestSelectPhysicalDeviceNoneSuitable(t *testing.T) {
	noPresent := gputest.NewPhysicalDevice("no present", gpu.PhysicalDeviceTypeDiscreteGpu)
	noPresent.PresentFamily = map[uint32]bool{}
	noModes := gputest.NewPhysicalDevice("no modes", gpu.PhysicalDeviceTypeDiscreteGpu)
	noModes.Modes = nil
	computeOnly := gputest.NewPhysicalDevice("compute only", gpu.PhysicalDeviceTypeDiscreteGpu)
	computeOnly.Families = []gpu.QueueFamily{{Flags: gpu.QueueCompute, Count: 1}}

	for _, instance := range []*gputest.Instance{
		gputest.NewInstance(),
		gputest.NewInstance(noPresent, noModes, computeOnly),
	} {
		_, err := SelectPhysicalDevice(instance, instance.Surface(), DefaultRequirements(VertexPosColorTexNormal))
		if !errors.Is(err, ErrNoSuitableGPU) {
			t.Errorf("got %v, want ErrNoSuitableGPU", err)
		}
	}
}

func TestSelectPhysicalDeviceQueueFamilies(t *testing.T) {
	split := gputest.NewPhysicalDevice("split", gpu.PhysicalDeviceTypeDiscreteGpu)
	split.Families = []gpu.QueueFamily{
		{Flags: gpu.QueueGraphics, Count: 1},
		{Flags: gpu.QueueTransfer, Count: 1},
	}
	split.PresentFamily = map[uint32]bool{1: true}

	instance := gputest.NewInstance(split)
	got, err := SelectPhysicalDevice(instance, instance.Surface(), DefaultRequirements(VertexPosColor))
	if err != nil {
		t.Fatalf("SelectPhysicalDevice: %v", err)
	}
	if got.Queues.Graphics != 0 || got.Queues.Present != 1 {
		t.Errorf("queues = %+v, want graphics 0 present 1", got.Queues)
	}
	if u := got.Queues.Unique(); len(u) != 2 {
		t.Errorf("unique families = %v, want 2 entries", u)
	}

	// A family able to do both wins over separate ones.
	both := gputest.NewPhysicalDevice("both", gpu.PhysicalDeviceTypeDiscreteGpu)
	both.Families = []gpu.QueueFamily{
		{Flags: gpu.QueueGraphics, Count: 1},
		{Flags: gpu.QueueGraphics | gpu.QueueTransfer, Count: 1},
	}
	both.PresentFamily = map[uint32]bool{1: true}
	instance = gputest.NewInstance(both)
	got, err = SelectPhysicalDevice(instance, instance.Surface(), DefaultRequirements(VertexPosColor))
	if err != nil {
		t.Fatalf("SelectPhysicalDevice: %v", err)
	}
	if got.Queues.Graphics != 1 || got.Queues.Present != 1 {
		t.Errorf("queues = %+v, want both on family 1", got.Queues)
	}
}

func TestPortabilitySubsetEnabledWhenAdvertised(t *testing.T) {
	phys := gputest.NewPhysicalDevice("moltenvk", gpu.PhysicalDeviceTypeIntegratedGpu)
	phys.DeviceExts = append(phys.DeviceExts, PortabilitySubsetExtName)

	device, _ := newTestDevice(t, phys)
	defer device.Destroy()

	exts := phys.CreateInfos[0].Extensions
	if len(exts) != 2 || exts[0] != SwapchainExtensionName || exts[1] != PortabilitySubsetExtName {
		t.Errorf("device extensions = %v", exts)
	}
}

func TestDetectDepthFormat(t *testing.T) {
	tests := []struct {
		name      string
		supported map[gpu.Format]bool
		linear    map[gpu.Format]bool
		want      gpu.Format
		wantErr   bool
	}{
		{"prefers D32", map[gpu.Format]bool{gpu.FormatD32Sfloat: true, gpu.FormatD24UnormS8Uint: true}, nil, gpu.FormatD32Sfloat, false},
		{"falls back to D32S8", map[gpu.Format]bool{gpu.FormatD32SfloatS8Uint: true, gpu.FormatD24UnormS8Uint: true}, nil, gpu.FormatD32SfloatS8Uint, false},
		{"falls back to D24S8", map[gpu.Format]bool{gpu.FormatD24UnormS8Uint: true}, nil, gpu.FormatD24UnormS8Uint, false},
		{"none", map[gpu.Format]bool{gpu.FormatD16Unorm: true}, nil, gpu.FormatUndefined, true},
		{"skips linear only D32", map[gpu.Format]bool{gpu.FormatD24UnormS8Uint: true}, map[gpu.Format]bool{gpu.FormatD32Sfloat: true}, gpu.FormatD24UnormS8Uint, false},
		{"linear only", nil, map[gpu.Format]bool{gpu.FormatD32Sfloat: true, gpu.FormatD24UnormS8Uint: true}, gpu.FormatUndefined, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phys := gputest.NewPhysicalDevice("gpu", gpu.PhysicalDeviceTypeDiscreteGpu)
			phys.DepthFormats = tt.supported
			phys.LinearDepthFormats = tt.linear
			got, err := detectDepthFormat(phys)
			if tt.wantErr {
				if !errors.Is(err, ErrNoDepthFormat) {
					t.Errorf("got %v, want ErrNoDepthFormat", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("got %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}
