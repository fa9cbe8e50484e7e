//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and runs the demo. RENDERTARGET_CONFIG selects the config file, which
// is then watched for changes.
func (Run) Demo() error {
	mg.Deps(Build.Demo)

	args := []string{}
	if path := os.Getenv("RENDERTARGET_CONFIG"); path != "" {
		args = append(args, "-config", path, "-watch")
	}
	fmt.Println("Run demo...")
	if _, err := executeCmd("bin/rendertarget", withArgs(args...), withStream()); err != nil {
		return err
	}
	return nil
}
