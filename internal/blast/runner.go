// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blast

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/pdiddy/wsf-plugins/internal/container"
)

// Runner executes a BLAST command line, writing the tool's console output
// to output. The returned signal is the tool's exit status; a non-zero exit
// is not an error.
type Runner interface {
	Run(ctx context.Context, argv []string, output io.Writer) (int, error)
}

// ExecRunner runs BLAST+ installed on the host.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, argv []string, output io.Writer) (int, error) {
	if len(argv) == 0 {
		return -1, fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = output
	cmd.Stderr = output
	return exitStatus(cmd.Run())
}

// ContainerRunner runs BLAST+ inside an image. Mounts must cover the temp
// and database directories so file arguments resolve inside the container.
type ContainerRunner struct {
	Runtime container.Runtime
	Image   string
	Mounts  []string
}

// Run implements Runner.
func (r *ContainerRunner) Run(ctx context.Context, argv []string, output io.Writer) (int, error) {
	return exitStatus(r.Runtime.Run(ctx, container.RunSpec{
		Image:   r.Image,
		Command: argv,
		Mounts:  r.Mounts,
		Stdout:  output,
		Stderr:  output,
	}))
}

func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	if code, ok := container.ExitCode(err); ok {
		return code, nil
	}
	return -1, err
}
