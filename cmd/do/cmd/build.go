package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
)

// binaries built when no argument is given
var binaries = []string{"server", "worker"}

func BuildCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "build [binary...]",
		Short: "Build the server and worker binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := args
			if len(targets) == 0 {
				targets = binaries
			}
			return build(output, targets)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "bin", "Output directory")
	return cmd
}

func build(output string, targets []string) error {
	err := os.MkdirAll(output, 0755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}

	for _, name := range targets {
		pkg := "./cmd/" + name
		if _, err := os.Stat(pkg); err != nil {
			return fmt.Errorf("unknown binary %q", name)
		}

		out := filepath.Join(output, name)
		fmt.Println("==> Building", out)
		err := run("go", "build", "-trimpath", "-o", out, pkg)
		if err != nil {
			return fmt.Errorf("go build %s failed: %w", pkg, err)
		}
	}

	fmt.Println("==> Done!")
	return nil
}

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
