//go:build mage

package main

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/sh"
	"github.com/magefile/mage/target"
)

// shaderSources lists the GLSL stages glslc knows how to compile.
func shaderSources(dir string) ([]string, error) {
	var sources []string
	for _, ext := range []string{".vert", ".frag"} {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		sources = append(sources, matches...)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no shader sources in %s", dir)
	}
	return sources, nil
}

// requireTool fails early with a readable message when a build tool is
// missing from PATH.
func requireTool(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not found in PATH, install the Vulkan SDK", name)
	}
	return nil
}

// compileShader runs glslc when out is missing or older than src.
func compileShader(src, out string) error {
	stale, err := target.Path(out, src)
	if err != nil {
		return err
	}
	if !stale {
		return nil
	}
	fmt.Printf("glslc %s\n", src)
	return sh.RunV("glslc", src, "-o", out)
}
