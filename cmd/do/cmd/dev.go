package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"slices"
	"syscall"

	"github.com/spf13/cobra"
)

func DevCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "dev [server|worker]",
		Short:     "Run the API server or the job worker under air with hot reload",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: binaries,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "server"
			if len(args) == 1 {
				target = args[0]
			}
			if !slices.Contains(binaries, target) {
				return fmt.Errorf("unknown target %q, want one of %v", target, binaries)
			}
			return runDev(target)
		},
	}
}

func runDev(target string) error {
	airPath, err := exec.LookPath("air")
	if err != nil {
		return fmt.Errorf("air not found, install it with: go install github.com/air-verse/air@latest")
	}

	fmt.Println("==> Building bin/do")
	err = run("go", "build", "-o", "bin/do", "./cmd/do")
	if err != nil {
		return fmt.Errorf("failed to build do: %w", err)
	}

	bin := "./tmp/" + target
	airArgs := []string{
		"air",
		"-c", "/dev/null",
		"-root", ".",
		"-build.cmd", fmt.Sprintf("go build -o %s ./cmd/%s", bin, target),
		"-build.bin", bin,
		"-build.delay", "100",
		"-build.exclude_dir", "bin,tmp,data,_examples",
		"-build.exclude_regex", "_test.go$",
		"-build.include_ext", "go,sql,md",
		"-build.kill_delay", "500ms",
		"-build.send_interrupt", "true",
	}

	env := append(os.Environ(), "APP_ENV=development")

	fmt.Printf("==> Watching ./cmd/%s\n", target)
	return syscall.Exec(airPath, airArgs, env)
}
