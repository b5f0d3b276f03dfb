package loaders

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

func spirv(words ...uint32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, append([]uint32{spirvMagic}, words...))
	return buf.Bytes()
}

func TestBytesToBytecode(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    []uint32
		wantErr bool
	}{
		{"module", spirv(0x00010000, 42), []uint32{spirvMagic, 0x00010000, 42}, false},
		{"empty", nil, nil, true},
		{"truncated", spirv(1)[:7], nil, true},
		{"bad magic", []byte{1, 2, 3, 4}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bytesToBytecode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSPIRV) {
					t.Fatalf("err = %v, want ErrInvalidSPIRV", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d words, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("word %d = %#x, want %#x", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestShaderLoaderMissingFile(t *testing.T) {
	_, err := (&ShaderLoader{}).Load(filepath.Join(t.TempDir(), "nope.spv"), "nope", nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not exist", err)
	}
}

const quadOBJ = `# a quad
o floor
v -1 0 -1
v  1 0 -1
v  1 0  1
v -1 0  1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 1 0
s off
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestParseOBJQuad(t *testing.T) {
	mesh, err := ParseOBJ(strings.NewReader(quadOBJ))
	if err != nil {
		t.Fatal(err)
	}
	if len(mesh.Vertices) != 6 || len(mesh.Indices) != 6 {
		t.Fatalf("got %d vertices %d indices, want 6 and 6", len(mesh.Vertices), len(mesh.Indices))
	}
	for i, idx := range mesh.Indices {
		if idx != uint32(i) {
			t.Errorf("index %d = %d, want sequential", i, idx)
		}
	}
	// Fan: (1,2,3) (1,3,4)
	wantPos := []mgl32.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, -1}, {1, 0, 1}, {-1, 0, 1}}
	for i, v := range mesh.Vertices {
		if v.Pos != wantPos[i] {
			t.Errorf("vertex %d pos = %v, want %v", i, v.Pos, wantPos[i])
		}
		if v.Color != (mgl32.Vec3{1, 1, 1}) {
			t.Errorf("vertex %d color = %v", i, v.Color)
		}
		if v.Normal != (mgl32.Vec3{0, 1, 0}) {
			t.Errorf("vertex %d normal = %v", i, v.Normal)
		}
	}
	// V is flipped.
	if mesh.Vertices[0].TexCoord != (mgl32.Vec2{0, 1}) || mesh.Vertices[2].TexCoord != (mgl32.Vec2{1, 0}) {
		t.Errorf("texcoords = %v %v", mesh.Vertices[0].TexCoord, mesh.Vertices[2].TexCoord)
	}
}

func TestParseOBJReferences(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{"positions only", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", false},
		{"no texcoord", "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1//1 2//1 3//1\n", false},
		{"negative", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n", false},
		{"out of range", "v 0 0 0\nf 1 2 3\n", true},
		{"two corners", "v 0 0 0\nv 1 0 0\nf 1 2\n", true},
		{"bad number", "v 0 zero 0\n", true},
		{"no faces", "v 0 0 0\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := ParseOBJ(strings.NewReader(tt.src))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedOBJ) {
					t.Fatalf("err = %v, want ErrMalformedOBJ", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(mesh.Vertices) != 3 {
				t.Errorf("got %d vertices", len(mesh.Vertices))
			}
		})
	}
}

func twoRowImage() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	im.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	im.Set(0, 1, color.NRGBA{0, 0, 255, 255})
	return im
}

func TestDecodeRGBAFlip(t *testing.T) {
	tests := []struct {
		flip     bool
		firstRow []uint8
	}{
		{false, []uint8{255, 0, 0, 255}},
		{true, []uint8{0, 0, 255, 255}},
	}
	for _, tt := range tests {
		data := DecodeRGBA(twoRowImage(), tt.flip)
		if data.Width != 1 || data.Height != 2 || len(data.Pixels) != 8 {
			t.Fatalf("got %dx%d with %d bytes", data.Width, data.Height, len(data.Pixels))
		}
		if !bytes.Equal(data.Pixels[:4], tt.firstRow) {
			t.Errorf("flip=%v first row = %v, want %v", tt.flip, data.Pixels[:4], tt.firstRow)
		}
	}
}

func TestImageLoaderPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checker.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, twoRowImage()); err != nil {
		t.Fatal(err)
	}
	f.Close()

	res, err := (&ImageLoader{}).Load(path, "checker", &metadata.ImageParams{FlipY: true})
	if err != nil {
		t.Fatal(err)
	}
	data := res.Data.(*metadata.ImageData)
	if res.Type != metadata.ResourceTypeImage || res.DataSize != 8 {
		t.Errorf("resource = %+v", res)
	}
	if data.Pixels[2] != 255 {
		t.Errorf("flipped image starts with %v", data.Pixels[:4])
	}
}
