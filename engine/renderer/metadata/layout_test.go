package metadata

import "testing"

func TestVertexLayout(t *testing.T) {
	if VertexSize != 44 {
		t.Errorf("VertexSize = %d, want 44", VertexSize)
	}
	offsets := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"pos", VertexOffsetPos, 0},
		{"color", VertexOffsetColor, 12},
		{"texcoord", VertexOffsetTexCoord, 24},
		{"normal", VertexOffsetNormal, 32},
	}
	for _, o := range offsets {
		if o.got != o.want {
			t.Errorf("%s offset = %d, want %d", o.name, o.got, o.want)
		}
	}
}

func TestUniformLayouts(t *testing.T) {
	if UniformBufferObjectSize != 192 {
		t.Errorf("UBO size = %d, want 192", UniformBufferObjectSize)
	}
	if LightUniformObjectSize != 48 {
		t.Errorf("light size = %d, want 48", LightUniformObjectSize)
	}
	l := LightUniformObject{AmbientIntensity: 0.4}
	if b := l.Bytes(); len(b) != 48 {
		t.Errorf("light bytes = %d", len(b))
	}
}

func TestAsBytes(t *testing.T) {
	idx := []uint32{0, 1, 2, 1, 3, 2}
	b := AsBytes(idx)
	if len(b) != 24 {
		t.Fatalf("len = %d, want 24", len(b))
	}
	if b[4] != 1 || b[16] != 3 {
		t.Errorf("unexpected bytes %v", b)
	}
	if AsBytes([]uint32(nil)) != nil {
		t.Error("expected nil for empty slice")
	}
}
