package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// killDelay is how long a capture process gets to honor SIGTERM before the
// whole process group is killed outright.
const killDelay = 5 * time.Second

// CommandExecutor runs capture tools in their own process group so that a
// cancelled context tears down the tool and any children it spawned:
// SIGTERM to the group first, SIGKILL after killDelay.
type CommandExecutor struct{}

// NewExecutor returns the default process-group executor.
func NewExecutor() Executor {
	return CommandExecutor{}
}

func (CommandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	done := make(chan struct{})
	cmd.Cancel = func() error {
		pgid := -cmd.Process.Pid
		err := unix.Kill(pgid, unix.SIGTERM)
		go func() {
			timer := time.NewTimer(killDelay)
			defer timer.Stop()
			select {
			case <-timer.C:
				_ = unix.Kill(pgid, unix.SIGKILL)
			case <-done:
			}
		}()
		return err
	}
	cmd.WaitDelay = 2 * killDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if onOutput != nil {
				onOutput(scanner.Text())
			}
		}
	}
	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	err = cmd.Wait()
	close(done)
	if err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
