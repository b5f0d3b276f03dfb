//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const shaderDir = "resources/shaders"

type Build mg.Namespace

// Compiles every GLSL stage under resources/shaders into <name>.<stage>.spv.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the engine binary.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	return sh.RunV("go", "build", "-o", "bin/vkscene", ".")
}

func buildShaders() error {
	if err := requireTool("glslc"); err != nil {
		return err
	}
	sources, err := shaderSources(shaderDir)
	if err != nil {
		return err
	}
	for _, src := range sources {
		if err := compileShader(src, src+".spv"); err != nil {
			return err
		}
	}
	return nil
}
