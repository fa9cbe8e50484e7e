//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the headless demo into bin/rendertarget.
func (Build) Demo() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/rendertarget", "."), withStream()); err != nil {
		return err
	}
	return nil
}

type Test mg.Namespace

// Runs the unit tests. None of them need a GPU, but the vulkan bindings need cgo.
func (Test) Unit() error {
	if _, err := executeCmd("go", withArgs("test", "-count=1", "./engine/..."), withEnv("CGO_ENABLED=1"), withStream()); err != nil {
		return err
	}
	return nil
}
