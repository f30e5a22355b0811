package proc

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/habedi/cardidle/badge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"
)

type fakeHandle struct {
	pid    int
	once   sync.Once
	done   chan struct{}
	killed bool
}

func (h *fakeHandle) Pid() int { return h.pid }

func (h *fakeHandle) Kill() error {
	h.once.Do(func() {
		h.killed = true
		close(h.done)
	})
	return nil
}

func (h *fakeHandle) Wait() error {
	<-h.done
	return nil
}

type fakeLauncher struct {
	mu      sync.Mutex
	nextPid int
	handles []*fakeHandle
	args    [][]string
	err     error
}

func (l *fakeLauncher) Launch(path string, args ...string) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.nextPid++
	h := &fakeHandle{pid: 1000 + l.nextPid, done: make(chan struct{})}
	l.handles = append(l.handles, h)
	l.args = append(l.args, append([]string{path}, args...))
	return h, nil
}

type fakeTable struct {
	procs  []ProcessInfo
	user   string
	killed []int32
}

func (f *fakeTable) List() ([]ProcessInfo, error)  { return f.procs, nil }
func (f *fakeTable) CurrentUser() (string, error) { return f.user, nil }

func (f *fakeTable) Kill(pid int32) error {
	f.killed = append(f.killed, pid)
	return nil
}

func title(id string) badge.Title {
	return badge.Title{ID: id, Name: "Title " + id}
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := &fakeLauncher{}
	s := NewSupervisor("/opt/idle/steam-idle", l, &fakeTable{})

	require.NoError(t, s.Start(title("10")))
	require.NoError(t, s.Start(title("10")))
	require.NoError(t, s.Start(title("20")))
	assert.Len(t, l.handles, 2, "starting a running title must not spawn again")
	assert.Equal(t, []string{"/opt/idle/steam-idle", "10"}, l.args[0])
	assert.True(t, s.IsRunning("10"))
	assert.ElementsMatch(t, []string{"10", "20"}, s.Running())

	require.NoError(t, s.Stop("10"))
	assert.False(t, s.IsRunning("10"))
	assert.True(t, l.handles[0].killed)
	require.NoError(t, s.Stop("10"))

	s.StopAll()
	assert.False(t, s.IsRunning("20"))
	assert.True(t, l.handles[1].killed)
}

func TestHelperExitIsReaped(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := &fakeLauncher{}
	s := NewSupervisor("steam-idle", l, &fakeTable{})
	require.NoError(t, s.Start(title("10")))

	close(l.handles[0].done)
	assert.Eventually(t, func() bool { return !s.IsRunning("10") }, time.Second, 5*time.Millisecond)
}

func TestStartErrors(t *testing.T) {
	s := NewSupervisor("", &fakeLauncher{}, &fakeTable{})
	assert.ErrorIs(t, s.Start(title("10")), ErrNoHelper)

	l := &fakeLauncher{err: errors.New("exec format error")}
	s = NewSupervisor("steam-idle", l, &fakeTable{})
	err := s.Start(title("10"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exec format error")
	assert.False(t, s.IsRunning("10"))
}

func TestSweepOrphans(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := &fakeLauncher{}
	table := &fakeTable{user: "alice"}
	s := NewSupervisor(`C:\Idle\steam-idle.exe`, l, table)
	require.NoError(t, s.Start(title("10")))
	tracked := int32(l.handles[0].pid)

	table.procs = []ProcessInfo{
		{Pid: tracked, Name: "steam-idle.exe", Username: "alice"},
		{Pid: 7, Name: "Steam-Idle.EXE", Username: "alice"},
		{Pid: 8, Name: "steam-idle", Username: "bob"},
		{Pid: 9, Name: "steam.exe", Username: "alice"},
	}

	n, err := s.SweepOrphans()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int32{7}, table.killed)
	assert.True(t, s.IsRunning("10"))
	s.StopAll()
}

func TestStartIsIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		l := &fakeLauncher{}
		s := NewSupervisor("steam-idle", l, &fakeTable{})
		ids := rapid.SliceOf(rapid.SampledFrom([]string{"1", "2", "3", "4"})).Draw(rt, "ids")

		seen := map[string]bool{}
		for _, id := range ids {
			require.NoError(rt, s.Start(title(id)))
			seen[id] = true
		}
		assert.Len(rt, l.handles, len(seen))
		assert.Len(rt, s.Running(), len(seen))
		s.StopAll()
		assert.Empty(rt, s.Running())
	})
}

func TestClientDetector(t *testing.T) {
	table := &fakeTable{procs: []ProcessInfo{{Pid: 1, Name: "bash"}}}
	assert.False(t, NewClientDetector(table, false).Ready())
	assert.True(t, NewClientDetector(table, true).Ready())

	table.procs = append(table.procs, ProcessInfo{Pid: 2, Name: "Steam.exe"})
	assert.True(t, NewClientDetector(table, false).Ready())
}
