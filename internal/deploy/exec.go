// internal/deploy/exec.go
package deploy

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ExecDeployer shells out to a packaging CLI (sam by default) per
// stack. Template authoring and parameter files are owned by the
// surrounding repository layout, not by this process.
type ExecDeployer struct {
	Cmd string
}

func (d ExecDeployer) Deploy(ctx context.Context, stackName string) error {
	cmd := exec.CommandContext(ctx, d.Cmd, "deploy",
		"--stack-name", stackName,
		"--no-fail-on-empty-changeset",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("deploying stack %s: %w", stackName, err)
	}
	return nil
}

// NopDeployer skips stack deployment, for resolve-only runs.
type NopDeployer struct{}

func (NopDeployer) Deploy(ctx context.Context, stackName string) error { return nil }
