//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Run mg.Namespace

// Compiles the shaders and runs the testbed.
func (Run) Engine() error {
	mg.Deps(Build.Shaders)
	fmt.Println("Run engine...")
	return sh.RunV("go", "run", ".", "-config", "vkscene.toml")
}

type Test mg.Namespace

// Runs every package test.
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}

// Runs the core, containers and systems tests with the race detector.
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./engine/core/...", "./engine/containers/...", "./engine/systems/...")
}
