package renderer

import (
	"testing"

	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu/gputest"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

func TestDescriptorBindingsPerLayout(t *testing.T) {
	ubo := func(binding uint32, stage gpu.ShaderStageFlags) gpu.DescriptorSetLayoutBinding {
		return gpu.DescriptorSetLayoutBinding{Binding: binding, Type: gpu.DescriptorTypeUniformBuffer, Count: 1, Stages: stage}
	}
	sampler := func(binding uint32) gpu.DescriptorSetLayoutBinding {
		return gpu.DescriptorSetLayoutBinding{Binding: binding, Type: gpu.DescriptorTypeCombinedImageSampler, Count: 1, Stages: gpu.ShaderStageFragment}
	}

	tests := []struct {
		layout VertexLayout
		want   []gpu.DescriptorSetLayoutBinding
	}{
		{VertexPosColor, []gpu.DescriptorSetLayoutBinding{ubo(0, gpu.ShaderStageVertex)}},
		{VertexPosColorTex, []gpu.DescriptorSetLayoutBinding{ubo(0, gpu.ShaderStageVertex), sampler(1)}},
		{VertexPosColorTexNormal, []gpu.DescriptorSetLayoutBinding{
			ubo(0, gpu.ShaderStageVertex),
			ubo(1, gpu.ShaderStageFragment),
			sampler(2),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.layout.String(), func(t *testing.T) {
			got := tt.layout.DescriptorBindings()
			if len(got) != len(tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("binding %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestVertexAttributesPerLayout(t *testing.T) {
	tests := []struct {
		layout    VertexLayout
		locations int
	}{
		{VertexPosColor, 2},
		{VertexPosColorTex, 3},
		{VertexPosColorTexNormal, 4},
	}
	offsets := []uint32{
		metadata.VertexOffsetPos,
		metadata.VertexOffsetColor,
		metadata.VertexOffsetTexCoord,
		metadata.VertexOffsetNormal,
	}
	for _, tt := range tests {
		attrs := tt.layout.Attributes()
		if len(attrs) != tt.locations {
			t.Errorf("%s: %d attributes, want %d", tt.layout, len(attrs), tt.locations)
			continue
		}
		for i, a := range attrs {
			if a.Location != uint32(i) || a.Offset != offsets[i] || a.Binding != 0 {
				t.Errorf("%s: attribute %d = %+v", tt.layout, i, a)
			}
		}
	}
}

func TestPoolSizes(t *testing.T) {
	sizes := VertexPosColorTexNormal.PoolSizes(3)
	if len(sizes) != 2 {
		t.Fatalf("sizes = %+v", sizes)
	}
	if sizes[0] != (gpu.DescriptorPoolSize{Type: gpu.DescriptorTypeUniformBuffer, Count: 6}) {
		t.Errorf("uniform buffers = %+v, want 6", sizes[0])
	}
	if sizes[1] != (gpu.DescriptorPoolSize{Type: gpu.DescriptorTypeCombinedImageSampler, Count: 3}) {
		t.Errorf("samplers = %+v, want 3", sizes[1])
	}
}

func TestNewPipelineState(t *testing.T) {
	f := newFixture(t, nil)
	f.addLitQuad(t)

	p := f.r.Sets[0].Pipeline
	info := p.Handle.(*gputest.Object).Info.(gpu.GraphicsPipelineCreateInfo)
	if info.VertexBindings[0].Stride != metadata.VertexSize || metadata.VertexSize != 44 {
		t.Errorf("stride = %d", info.VertexBindings[0].Stride)
	}
	if info.CullMode != gpu.CullModeBack || info.FrontFace != gpu.FrontFaceCounterClockwise {
		t.Errorf("cull %d, front face %d", info.CullMode, info.FrontFace)
	}
	if !info.DepthTest || !info.DepthWrite || info.DepthCompare != gpu.CompareOpLess {
		t.Errorf("depth state = %v %v %d", info.DepthTest, info.DepthWrite, info.DepthCompare)
	}
	if info.PolygonMode != gpu.PolygonModeFill || info.EntryPoint != "main" {
		t.Errorf("polygon mode %d, entry %q", info.PolygonMode, info.EntryPoint)
	}
	if f.dev.Live(gputest.KindShaderModule) != 0 {
		t.Error("shader modules outlive pipeline creation")
	}
	f.checkProblems(t)
}

func TestNewPipelineWireframe(t *testing.T) {
	tests := []struct {
		wireframe bool
		want      gpu.PolygonMode
	}{
		{false, gpu.PolygonModeFill},
		{true, gpu.PolygonModeLine},
	}
	for _, tt := range tests {
		f := newFixture(t, nil)
		mesh, err := NewMesh("quad", quadData())
		if err != nil {
			t.Fatal(err)
		}
		set := NewRenderableSet("colored", PipelineConfig{
			Layout:         VertexPosColor,
			VertexShader:   testShader,
			FragmentShader: testShader,
			Wireframe:      tt.wireframe,
		})
		set.Add(mesh)
		if err := f.r.AddRenderableSet(set); err != nil {
			t.Fatal(err)
		}
		info := set.Pipeline.Handle.(*gputest.Object).Info.(gpu.GraphicsPipelineCreateInfo)
		if info.PolygonMode != tt.want {
			t.Errorf("wireframe %v: polygon mode %d, want %d", tt.wireframe, info.PolygonMode, tt.want)
		}
		if info.CullMode != gpu.CullModeBack {
			t.Errorf("wireframe %v: cull mode %d", tt.wireframe, info.CullMode)
		}
		f.checkProblems(t)
	}
}

func TestNewPipelineFailureUnwinds(t *testing.T) {
	f := newFixture(t, nil)
	f.dev.FailOn["CreateGraphicsPipeline"] = true

	mesh, err := NewMesh("quad", quadData())
	if err != nil {
		t.Fatal(err)
	}
	set := NewRenderableSet("colored", PipelineConfig{Layout: VertexPosColor, VertexShader: testShader, FragmentShader: testShader})
	set.Add(mesh)
	if err := f.r.AddRenderableSet(set); err == nil {
		t.Fatal("expected pipeline creation to fail")
	}
	for _, kind := range []gputest.Kind{gputest.KindPipelineLayout, gputest.KindDescriptorSetLayout, gputest.KindShaderModule, gputest.KindBuffer} {
		if n := f.dev.Live(kind); n != 0 {
			t.Errorf("%d live %s after failure", n, kind)
		}
	}
	if len(f.r.Sets) != 0 {
		t.Error("failed set was registered")
	}
	f.checkProblems(t)
}
