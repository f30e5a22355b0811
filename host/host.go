// Package host performs machine-level side effects: scheduling a shutdown when
// idling completes and keeping the machine awake while titles idle.
package host

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUnsupported is returned on platforms without a known shutdown command.
var ErrUnsupported = errors.New("not supported on this platform")

// Process is a long-running command started by a Runner.
type Process interface {
	Kill() error
}

// Runner executes OS commands.
type Runner interface {
	Run(name string, args ...string) error
	Start(name string, args ...string) (Process, error)
}

type execRunner struct{}

func (execRunner) Run(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, out)
	}
	return nil
}

type execProcess struct{ cmd *exec.Cmd }

func (p execProcess) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil {
		return err
	}
	_ = p.cmd.Wait()
	return nil
}

func (execRunner) Start(name string, args ...string) (Process, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	return execProcess{cmd: cmd}, nil
}

// Controller implements host side effects for one operating system.
type Controller struct {
	goos   string
	runner Runner

	mu        sync.Mutex
	inhibitor Process
	awake     bool
}

// NewController returns a controller for the running OS.
func NewController() *Controller {
	return NewControllerFor(runtime.GOOS, execRunner{})
}

// NewControllerFor returns a controller issuing goos commands through runner.
func NewControllerFor(goos string, runner Runner) *Controller {
	return &Controller{goos: goos, runner: runner}
}

// RequestShutdown schedules a power-off after delay and broadcasts message where the OS supports it.
func (c *Controller) RequestShutdown(delay time.Duration, message string) error {
	name, args, err := shutdownCommand(c.goos, delay, message)
	if err != nil {
		return err
	}
	log.Info().Dur("delay", delay).Msg("Scheduling shutdown")
	return c.runner.Run(name, args...)
}

// AbortShutdown cancels a pending shutdown.
func (c *Controller) AbortShutdown() error {
	switch c.goos {
	case "windows":
		return c.runner.Run("shutdown", "/a")
	case "linux":
		return c.runner.Run("shutdown", "-c")
	case "darwin":
		return c.runner.Run("killall", "shutdown")
	default:
		return ErrUnsupported
	}
}

func shutdownCommand(goos string, delay time.Duration, message string) (string, []string, error) {
	switch goos {
	case "windows":
		secs := int(delay.Round(time.Second) / time.Second)
		return "shutdown", []string{"/s", "/c", message, "/t", strconv.Itoa(secs)}, nil
	case "linux", "darwin":
		// shutdown only takes whole minutes here.
		mins := int((delay + time.Minute - 1) / time.Minute)
		return "shutdown", []string{"-h", "+" + strconv.Itoa(mins), message}, nil
	default:
		return "", nil, fmt.Errorf("shutdown on %s: %w", goos, ErrUnsupported)
	}
}

// PreventSleep keeps the machine awake until AllowSleep. Calling it twice is a no-op.
func (c *Controller) PreventSleep() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.awake {
		return nil
	}

	var err error
	switch c.goos {
	case "windows":
		err = setAwake(true)
	case "linux":
		c.inhibitor, err = c.runner.Start("systemd-inhibit",
			"--what=idle:sleep", "--who=cardidle", "--why=Idling card drops", "--mode=block",
			"sleep", "infinity")
	case "darwin":
		c.inhibitor, err = c.runner.Start("caffeinate", "-i")
	default:
		err = ErrUnsupported
	}
	if err != nil {
		return fmt.Errorf("failed to prevent sleep: %w", err)
	}
	c.awake = true
	log.Debug().Msg("Sleep inhibited")
	return nil
}

// AllowSleep releases the inhibition taken by PreventSleep.
func (c *Controller) AllowSleep() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.awake {
		return nil
	}
	c.awake = false

	if c.goos == "windows" {
		return setAwake(false)
	}
	if c.inhibitor == nil {
		return nil
	}
	err := c.inhibitor.Kill()
	c.inhibitor = nil
	return err
}
