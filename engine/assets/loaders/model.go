package loaders

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

var ErrMalformedOBJ = errors.New("malformed obj")

var white = mgl32.Vec3{1, 1, 1}

/**
 * @brief Loads Wavefront OBJ models into a flat vertex list. Every face
 * corner becomes its own vertex and indices are sequential.
 */
type ModelLoader struct{}

func (ml *ModelLoader) Load(path string, name string, params interface{}) (*metadata.Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer file.Close()

	mesh, err := ParseOBJ(file)
	if err != nil {
		return nil, errors.Wrapf(err, "model %s", path)
	}
	core.LogDebug("Loaded model %s: %d vertices.", name, len(mesh.Vertices))

	return &metadata.Resource{
		Type:     metadata.ResourceTypeMesh,
		Name:     name,
		FullPath: path,
		DataSize: uint64(len(mesh.Vertices)) * uint64(metadata.VertexSize),
		Data:     mesh,
	}, nil
}

func (ml *ModelLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

type objParser struct {
	positions []mgl32.Vec3
	uvs       []mgl32.Vec2
	normals   []mgl32.Vec3
	mesh      *metadata.MeshData
}

/*
	wavefront obj importer
	http://paulbourke.net/dataformats/obj/

	Only geometry is read: v, vt, vn and f. Polygons are split into a
	triangle fan. Grouping, materials and free-form statements are skipped.
*/
func ParseOBJ(r io.Reader) (*metadata.MeshData, error) {
	p := &objParser{mesh: &metadata.MeshData{}}

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		var err error
		switch fields[0] {
		case "v": // geometric vertices: x, y, z, [w]
			var v mgl32.Vec3
			if v, err = parseVec3(fields); err == nil {
				p.positions = append(p.positions, v)
			}
		case "vt": // texture vertices: u, v, [w]
			var uv mgl32.Vec2
			if uv, err = parseUV(fields); err == nil {
				p.uvs = append(p.uvs, uv)
			}
		case "vn": // vertex normals: i, j, k
			var n mgl32.Vec3
			if n, err = parseVec3(fields); err == nil {
				p.normals = append(p.normals, n)
			}
		case "f": // face: v/vt/vn v/vt/vn v/vt/vn ...
			err = p.face(fields[1:])
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNumber)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(p.mesh.Indices) == 0 {
		return nil, errors.Wrap(ErrMalformedOBJ, "no faces")
	}
	return p.mesh, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n+1 {
		return nil, errors.Wrapf(ErrMalformedOBJ, "%s needs %d components", fields[0], n)
	}
	out := make([]float32, n)
	for i := range out {
		f, err := strconv.ParseFloat(fields[i+1], 32)
		if err != nil {
			return nil, errors.Wrap(ErrMalformedOBJ, err.Error())
		}
		out[i] = float32(f)
	}
	return out, nil
}

func parseVec3(fields []string) (mgl32.Vec3, error) {
	f, err := parseFloats(fields, 3)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return mgl32.Vec3{f[0], f[1], f[2]}, nil
}

func parseUV(fields []string) (mgl32.Vec2, error) {
	f, err := parseFloats(fields, 2)
	if err != nil {
		return mgl32.Vec2{}, err
	}
	// OBJ puts v=0 at the bottom, images start at the top.
	return mgl32.Vec2{f[0], 1.0 - f[1]}, nil
}

func (p *objParser) face(corners []string) error {
	if len(corners) < 3 {
		return errors.Wrapf(ErrMalformedOBJ, "face with %d corners", len(corners))
	}
	vertices := make([]metadata.Vertex, len(corners))
	for i, corner := range corners {
		v, err := p.corner(corner)
		if err != nil {
			return err
		}
		vertices[i] = v
	}
	for i := 1; i+1 < len(vertices); i++ {
		for _, v := range []metadata.Vertex{vertices[0], vertices[i], vertices[i+1]} {
			p.mesh.Indices = append(p.mesh.Indices, uint32(len(p.mesh.Vertices)))
			p.mesh.Vertices = append(p.mesh.Vertices, v)
		}
	}
	return nil
}

func (p *objParser) corner(corner string) (metadata.Vertex, error) {
	refs := strings.Split(corner, "/")
	vertex := metadata.Vertex{Color: white}

	pos, err := resolve(refs[0], len(p.positions))
	if err != nil {
		return vertex, err
	}
	vertex.Pos = p.positions[pos]

	if len(refs) > 1 && refs[1] != "" {
		uv, err := resolve(refs[1], len(p.uvs))
		if err != nil {
			return vertex, err
		}
		vertex.TexCoord = p.uvs[uv]
	}
	if len(refs) > 2 && refs[2] != "" {
		n, err := resolve(refs[2], len(p.normals))
		if err != nil {
			return vertex, err
		}
		vertex.Normal = p.normals[n]
	}
	return vertex, nil
}

// resolve turns a 1-based or negative relative OBJ reference into an index.
func resolve(ref string, count int) (int, error) {
	i, err := strconv.Atoi(ref)
	if err != nil {
		return 0, errors.Wrap(ErrMalformedOBJ, err.Error())
	}
	if i < 0 {
		i += count
	} else {
		i--
	}
	if i < 0 || i >= count {
		return 0, errors.Wrapf(ErrMalformedOBJ, "reference %s out of range (%d defined)", ref, count)
	}
	return i, nil
}
