package proc

import (
	"fmt"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Handle is a launched helper process.
type Handle interface {
	Pid() int
	Kill() error
	Wait() error
}

// Launcher starts helper processes.
type Launcher interface {
	Launch(path string, args ...string) (Handle, error)
}

// ProcessInfo describes one entry of the OS process table.
type ProcessInfo struct {
	Pid      int32
	Name     string
	Username string
}

// ProcessTable lists and kills OS processes.
type ProcessTable interface {
	List() ([]ProcessInfo, error)
	Kill(pid int32) error
	CurrentUser() (string, error)
}

// ExecLauncher launches helpers with os/exec.
type ExecLauncher struct{}

type execHandle struct {
	cmd *exec.Cmd
}

func (h *execHandle) Pid() int    { return h.cmd.Process.Pid }
func (h *execHandle) Kill() error { return h.cmd.Process.Kill() }
func (h *execHandle) Wait() error { return h.cmd.Wait() }

// Launch starts path with args and returns without waiting for it to exit.
func (ExecLauncher) Launch(path string, args ...string) (Handle, error) {
	cmd := exec.Command(path, args...)
	cmd.Dir = filepath.Dir(path)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", path, err)
	}
	return &execHandle{cmd: cmd}, nil
}

// SystemTable is the ProcessTable backed by gopsutil.
type SystemTable struct{}

// List returns every process whose name could be read. The owner is left empty
// when the OS refuses to report it.
func (SystemTable) List() ([]ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		owner, _ := p.Username()
		infos = append(infos, ProcessInfo{Pid: p.Pid, Name: name, Username: owner})
	}
	return infos, nil
}

func (SystemTable) Kill(pid int32) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		return fmt.Errorf("process %d not found: %w", pid, err)
	}
	if err := p.Kill(); err != nil {
		return fmt.Errorf("failed to kill process %d: %w", pid, err)
	}
	return nil
}

func (SystemTable) CurrentUser() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to look up current user: %w", err)
	}
	return u.Username, nil
}

// baseName strips the directory and a trailing .exe so names match across platforms.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(strings.ToLower(name), ".exe")
}
