package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu/gputest"
)

func TestFindMemoryType(t *testing.T) {
	props := gputest.DefaultMemory()
	hostVisible := gpu.MemoryPropertyHostVisible | gpu.MemoryPropertyHostCoherent

	tests := []struct {
		name    string
		filter  uint32
		flags   gpu.MemoryPropertyFlags
		want    uint32
		wantErr bool
	}{
		{"device local", 0b111, gpu.MemoryPropertyDeviceLocal, 0, false},
		{"lowest host visible", 0b111, hostVisible, 1, false},
		{"filter skips lower index", 0b100, hostVisible, 2, false},
		{"cached", 0b111, gpu.MemoryPropertyHostCached, 2, false},
		{"no flags takes first allowed", 0b110, 0, 1, false},
		{"filter excludes all matches", 0b001, hostVisible, 0, true},
		{"flags never satisfied", 0b111, gpu.MemoryPropertyDeviceLocal | gpu.MemoryPropertyHostVisible, 0, true},
		{"empty filter", 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindMemoryType(props, tt.filter, tt.flags)
			if tt.wantErr {
				if !errors.Is(err, ErrNoMemoryType) {
					t.Errorf("got %d, %v; want ErrNoMemoryType", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got index %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCreateDeviceLocalBufferStaging(t *testing.T) {
	device, dev := newTestDevice(t, gputest.NewPhysicalDevice("gpu", gpu.PhysicalDeviceTypeDiscreteGpu))
	alloc := NewAllocator(device)

	data := []byte("vertex data that goes through a staging buffer")
	buf, err := alloc.CreateDeviceLocalBuffer(data, gpu.BufferUsageVertexBuffer)
	if err != nil {
		t.Fatalf("CreateDeviceLocalBuffer: %v", err)
	}

	if got := dev.Created(gputest.KindBuffer); got != 2 {
		t.Errorf("created %d buffers, want staging + destination", got)
	}
	if got := dev.Live(gputest.KindBuffer); got != 1 {
		t.Errorf("%d live buffers after upload, want 1", got)
	}
	if got := dev.Live(gputest.KindMemory); got != 1 {
		t.Errorf("%d live allocations after upload, want 1", got)
	}
	if buf.Usage&gpu.BufferUsageTransferDst == 0 || buf.Usage&gpu.BufferUsageVertexBuffer == 0 {
		t.Errorf("usage = %#x, want vertex|transfer dst", buf.Usage)
	}

	subs := dev.Submissions()
	if len(subs) != 1 || subs[0].Fence != nil {
		t.Fatalf("submissions = %+v, want one fenceless copy", subs)
	}
	if cmds := subs[0].CommandRecords[0]; len(cmds) != 1 || cmds[0] != "CmdCopyBuffer" {
		t.Errorf("recorded %v, want [CmdCopyBuffer]", cmds)
	}
	if dev.CallCount("QueueWaitIdle") != 1 {
		t.Error("single use submission was not waited on")
	}
	if dev.Destroyed(gputest.KindCommandBuffer) != 1 {
		t.Error("single use command buffer not freed")
	}

	buf.Destroy()
	buf.Destroy()
	device.Destroy()
	if p := dev.Problems(); len(p) > 0 {
		t.Errorf("problems: %v", p)
	}
}

func TestHostBufferWrite(t *testing.T) {
	device, dev := newTestDevice(t, gputest.NewPhysicalDevice("gpu", gpu.PhysicalDeviceTypeDiscreteGpu))
	alloc := NewAllocator(device)
	defer device.Destroy()

	buf, err := alloc.CreateHostBuffer(16, gpu.BufferUsageUniformBuffer)
	if err != nil {
		t.Fatalf("CreateHostBuffer: %v", err)
	}
	defer buf.Destroy()

	if err := buf.Write([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := dev.MemoryContents(buf.Memory); !bytes.HasPrefix(got, []byte{1, 2, 3, 4}) {
		t.Errorf("memory = %v", got[:4])
	}
}

func TestCreateBufferNoMemoryTypeLeavesNothing(t *testing.T) {
	device, dev := newTestDevice(t, gputest.NewPhysicalDevice("gpu", gpu.PhysicalDeviceTypeDiscreteGpu))
	alloc := NewAllocator(device)
	dev.BufferTypeBits = 0b001

	_, err := alloc.CreateHostBuffer(64, gpu.BufferUsageTransferSrc)
	if !errors.Is(err, ErrNoMemoryType) {
		t.Fatalf("got %v, want ErrNoMemoryType", err)
	}
	if dev.Live(gputest.KindBuffer) != 0 || dev.Live(gputest.KindMemory) != 0 {
		t.Error("failed creation left objects alive")
	}
	device.Destroy()
	if p := dev.Problems(); len(p) > 0 {
		t.Errorf("problems: %v", p)
	}
}

func TestTransitionImageLayout(t *testing.T) {
	tests := []struct {
		from, to gpu.ImageLayout
		ok       bool
	}{
		{gpu.ImageLayoutUndefined, gpu.ImageLayoutTransferDstOptimal, true},
		{gpu.ImageLayoutTransferDstOptimal, gpu.ImageLayoutShaderReadOnlyOptimal, true},
		{gpu.ImageLayoutUndefined, gpu.ImageLayoutDepthStencilAttachmentOptimal, true},
		{gpu.ImageLayoutUndefined, gpu.ImageLayoutShaderReadOnlyOptimal, false},
		{gpu.ImageLayoutShaderReadOnlyOptimal, gpu.ImageLayoutTransferDstOptimal, false},
		{gpu.ImageLayoutTransferDstOptimal, gpu.ImageLayoutPresentSrc, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d->%d", tt.from, tt.to), func(t *testing.T) {
			device, dev := newTestDevice(t, gputest.NewPhysicalDevice("gpu", gpu.PhysicalDeviceTypeDiscreteGpu))
			defer device.Destroy()
			alloc := NewAllocator(device)

			img, err := alloc.CreateImage(ImageInfo{
				Width:      4,
				Height:     4,
				Format:     gpu.FormatR8G8B8A8Srgb,
				Usage:      gpu.ImageUsageSampled,
				Properties: gpu.MemoryPropertyDeviceLocal,
			})
			if err != nil {
				t.Fatalf("CreateImage: %v", err)
			}
			defer img.Destroy()

			err = alloc.TransitionImageLayout(img.Handle, img.Format, tt.from, tt.to)
			if !tt.ok {
				if !errors.Is(err, ErrUnsupportedTransition) {
					t.Errorf("got %v, want ErrUnsupportedTransition", err)
				}
				if n := dev.CallCount("AllocateCommandBuffers"); n != 0 {
					t.Errorf("unsupported transition allocated %d command buffers", n)
				}
				return
			}
			if err != nil {
				t.Fatalf("TransitionImageLayout: %v", err)
			}
			want := fmt.Sprintf("CmdPipelineBarrier(%d->%d)", tt.from, tt.to)
			subs := dev.Submissions()
			if len(subs) != 1 || len(subs[0].CommandRecords[0]) != 1 || subs[0].CommandRecords[0][0] != want {
				t.Errorf("submissions = %+v, want single %s", subs, want)
			}
		})
	}
}

func TestUploadImage(t *testing.T) {
	device, dev := newTestDevice(t, gputest.NewPhysicalDevice("gpu", gpu.PhysicalDeviceTypeDiscreteGpu))
	alloc := NewAllocator(device)

	img, err := alloc.UploadImage(checkerImage(8, 4).Pixels, 8, 4, TextureFormat)
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if img.View == nil {
		t.Error("uploaded image has no view")
	}

	var recorded []string
	for _, s := range dev.Submissions() {
		recorded = append(recorded, s.CommandRecords[0]...)
	}
	want := []string{
		fmt.Sprintf("CmdPipelineBarrier(%d->%d)", gpu.ImageLayoutUndefined, gpu.ImageLayoutTransferDstOptimal),
		"CmdCopyBufferToImage",
		fmt.Sprintf("CmdPipelineBarrier(%d->%d)", gpu.ImageLayoutTransferDstOptimal, gpu.ImageLayoutShaderReadOnlyOptimal),
	}
	if fmt.Sprint(recorded) != fmt.Sprint(want) {
		t.Errorf("recorded %v, want %v", recorded, want)
	}
	if dev.Live(gputest.KindBuffer) != 0 {
		t.Error("staging buffer still alive")
	}

	if _, err := alloc.UploadImage(make([]byte, 10), 8, 4, TextureFormat); err == nil {
		t.Error("short pixel data accepted")
	}

	img.Destroy()
	device.Destroy()
	if p := dev.Problems(); len(p) > 0 {
		t.Errorf("problems: %v", p)
	}
}

func TestCreateTextureSamplerAnisotropy(t *testing.T) {
	phys := gputest.NewPhysicalDevice("gpu", gpu.PhysicalDeviceTypeDiscreteGpu)
	phys.Props.Limits.MaxSamplerAnisotropy = 8
	device, dev := newTestDevice(t, phys)
	defer device.Destroy()

	sampler, err := NewAllocator(device).CreateTextureSampler()
	if err != nil {
		t.Fatalf("CreateTextureSampler: %v", err)
	}
	info := sampler.(*gputest.Object).Info.(gpu.SamplerCreateInfo)
	if !info.AnisotropyEnable || info.MaxAnisotropy != 8 {
		t.Errorf("sampler info = %+v", info)
	}
	if info.MagFilter != gpu.FilterLinear || info.AddressMode != gpu.SamplerAddressModeRepeat {
		t.Errorf("sampler info = %+v", info)
	}
	dev.DestroySampler(sampler)
}
