package loaders

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

// SPIR-V modules start with this word.
const spirvMagic uint32 = 0x07230203

var ErrInvalidSPIRV = errors.New("not a SPIR-V module")

type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string, name string, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	code, err := bytesToBytecode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypeShader,
		Name:     name,
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     code,
	}, nil
}

func (sl *ShaderLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

// bytesToBytecode reinterprets a little endian SPIR-V file as its words.
func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidSPIRV, "size %d is not a positive multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	if byteCode[0] != spirvMagic {
		return nil, errors.Wrapf(ErrInvalidSPIRV, "magic %#08x", byteCode[0])
	}
	return byteCode, nil
}
