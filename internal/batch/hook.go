package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// ErrHookFailed is returned when the weights hook exits unsuccessfully.
var ErrHookFailed = errors.New("weights hook failed")

// Hook regenerates the kinematic weight surface.
type Hook interface {
	Run(ctx context.Context) error
}

// CommandHook runs an external command. Output goes to Stdout and Stderr
// when set and is discarded otherwise.
type CommandHook struct {
	Argv   []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the command and waits for it.
func (h *CommandHook) Run(ctx context.Context) error {
	if len(h.Argv) == 0 {
		return fmt.Errorf("%w: empty command", ErrHookFailed)
	}
	cmd := exec.CommandContext(ctx, h.Argv[0], h.Argv[1:]...)
	cmd.Dir = h.Dir
	cmd.Stdout = h.Stdout
	cmd.Stderr = h.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrHookFailed, h.Argv[0], err)
	}
	return nil
}

// onceHook runs the wrapped hook at most once per batch. Concurrent
// callers wait for the first run and share its result.
type onceHook struct {
	hook Hook
	mu   sync.Mutex
	done bool
	err  error
}

func (o *onceHook) run(ctx context.Context) (ran bool, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done {
		return false, o.err
	}
	o.err = o.hook.Run(ctx)
	o.done = true
	return true, o.err
}
