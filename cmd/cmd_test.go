package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/habedi/cardidle/badge"
	"github.com/habedi/cardidle/config"
	"github.com/habedi/cardidle/db"
	"github.com/habedi/cardidle/idle"
	"github.com/habedi/cardidle/pkg/clierr"
	"github.com/habedi/cardidle/proc"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeTable struct {
	mu     sync.Mutex
	procs  []proc.ProcessInfo
	killed []int32
}

func (f *fakeTable) List() ([]proc.ProcessInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]proc.ProcessInfo(nil), f.procs...), nil
}

func (f *fakeTable) Kill(pid int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killed = append(f.killed, pid)
	return nil
}

func (f *fakeTable) CurrentUser() (string, error) { return "me", nil }

func newTestServices(t *testing.T) (*services, *fakeTable) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.HomeEnv, dir)
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(dir, "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	cfg, err := config.NewConfig(dir)
	require.NoError(t, err)
	table := &fakeTable{}
	return newServices(gdb, cfg, table), table
}

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, svc *services, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, svc, "", args...)
}

func executeWithInput(t *testing.T, svc *services, input string, args ...string) (string, error) {
	t.Helper()
	root := createRootCmd(svc)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	svc, _ := newTestServices(t)
	root := createRootCmd(svc)
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"init", "login", "logout", "auth", "badges", "idle", "settings", "stats", "sweep", "shutdown", "gui", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCmd(t *testing.T) {
	svc, _ := newTestServices(t)
	out, err := execute(t, svc, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Cardidle version: "+version)
	assert.Contains(t, out, "Platform:")
	assert.Contains(t, out, "Data directory: "+config.Dir())

	require.NoError(t, svc.cfg.Set("helper_path", filepath.Join(t.TempDir(), "steam-idle")))
	out, err = execute(t, svc, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "(missing)")

	helper := filepath.Join(t.TempDir(), "steam-idle")
	require.NoError(t, os.WriteFile(helper, []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, svc.cfg.Set("helper_path", helper))
	out, err = execute(t, svc, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Idle helper: "+helper+"\n")
}

func TestReportError(t *testing.T) {
	cmd := &cobra.Command{}
	buf := new(bytes.Buffer)
	cmd.SetErr(buf)

	code := reportError(cmd, clierr.New(clierr.Validation, "bad input", errors.New("detail")))
	assert.Equal(t, 2, code)
	assert.Contains(t, buf.String(), "Error: bad input")
	assert.NotContains(t, buf.String(), "detail")

	buf.Reset()
	assert.Equal(t, 1, reportError(cmd, errors.New("boom")))
	assert.Contains(t, buf.String(), "boom")
}

func TestSettingsSetAndShow(t *testing.T) {
	svc, _ := newTestServices(t)

	_, err := execute(t, svc, "settings", "set", "sort", badge.SortMostCards)
	require.NoError(t, err)
	assert.Equal(t, badge.SortMostCards, svc.cfg.Values().Sort)

	out, err := execute(t, svc, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "mostcards")
	assert.Contains(t, out, svc.cfg.Path())

	_, err = execute(t, svc, "settings", "set", "sort", "random")
	var ce *clierr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clierr.Validation, ce.Type)

	_, err = execute(t, svc, "settings", "set", "sort")
	assert.Error(t, err)
}

func TestSettingsLists(t *testing.T) {
	svc, _ := newTestServices(t)

	out, err := execute(t, svc, "settings", "blacklist", "add", "570", "440")
	require.NoError(t, err)
	assert.Contains(t, out, "570 added to the blacklist")
	assert.Equal(t, []string{"570", "440"}, svc.cfg.Values().Blacklist)

	_, err = execute(t, svc, "settings", "blacklist", "remove", "570")
	require.NoError(t, err)
	assert.Equal(t, []string{"440"}, svc.cfg.Values().Blacklist)

	_, err = execute(t, svc, "settings", "whitelist", "add", "abc")
	var ce *clierr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clierr.Validation, ce.Type)
	assert.Empty(t, svc.cfg.Values().Whitelist)
}

func TestBadgesList(t *testing.T) {
	svc, _ := newTestServices(t)

	out, err := execute(t, svc, "badges", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No titles found")

	require.NoError(t, svc.titles.ReplaceAll(context.Background(), []badge.Entry{
		{ID: "570", Name: "Dota 2", Remaining: badge.Known(3), HoursPlayed: 12},
		{ID: "440", Name: "Team Fortress 2", Remaining: badge.Known(1)},
		{ID: "730", Name: "Counter-Strike 2", Remaining: badge.Known(0)},
	}))
	require.NoError(t, svc.cfg.Add(config.Blacklist, "440"))

	out, err = execute(t, svc, "badges", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Dota 2")
	assert.NotContains(t, out, "Team Fortress 2")
	assert.NotContains(t, out, "Counter-Strike 2")
	assert.Contains(t, out, "1 titles can be idled, 3 card drops remaining.")

	out, err = execute(t, svc, "badges", "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Team Fortress 2")
	assert.Contains(t, out, "Counter-Strike 2")
}

func TestBadgesRefresh_NotLoggedIn(t *testing.T) {
	svc, _ := newTestServices(t)
	_, err := execute(t, svc, "badges", "refresh")
	var ce *clierr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clierr.Auth, ce.Type)
}

func TestStatsCmd(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	require.NoError(t, svc.stats.AddMinutes(ctx, 90))
	require.NoError(t, svc.stats.AddCards(ctx, 3))

	out, err := execute(t, svc, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "1h 30m")
	assert.Contains(t, out, "Cards idled")
}

func TestSweepCmd(t *testing.T) {
	svc, table := newTestServices(t)
	require.NoError(t, svc.cfg.Set("helper_path", "/opt/idle/steam-idle"))
	table.procs = []proc.ProcessInfo{
		{Pid: 10, Name: "steam-idle", Username: "me"},
		{Pid: 11, Name: "steam-idle", Username: "someone"},
		{Pid: 12, Name: "steam", Username: "me"},
	}

	out, err := execute(t, svc, "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "Stopped 1 leftover idle helpers.")
	assert.Equal(t, []int32{10}, table.killed)

	table.procs = nil
	out, err = execute(t, svc, "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "No leftover idle helpers found.")
}

func TestIdleCmd_NotLoggedIn(t *testing.T) {
	svc, _ := newTestServices(t)
	_, err := execute(t, svc, "idle", "--no-input")
	require.Error(t, err)
	assert.ErrorIs(t, err, idle.ErrNotReady)
	var ce *clierr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 3, ce.ExitCode())
}

func TestLoginAndLogout(t *testing.T) {
	svc, _ := newTestServices(t)
	orig := browserLogin
	defer func() { browserLogin = orig }()

	browserLogin = func(ctx context.Context, dir string, headless bool) (*db.Session, error) {
		return &db.Session{SessionID: "sid", LoginSecure: "secure", ProfileURL: "https://steamcommunity.com/id/gaben"}, nil
	}
	out, err := execute(t, svc, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Login was successful")
	assert.True(t, svc.auth.SessionValid())
	assert.True(t, svc.auth.HasProfile())

	require.NoError(t, svc.titles.ReplaceAll(context.Background(), []badge.Entry{{ID: "570", Name: "Dota 2", Remaining: badge.Known(1)}}))
	_, err = execute(t, svc, "logout")
	require.NoError(t, err)
	assert.False(t, svc.auth.SessionValid())
	entries, err := svc.titles.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogin_RejectsMissingProfile(t *testing.T) {
	svc, _ := newTestServices(t)
	orig := browserLogin
	defer func() { browserLogin = orig }()

	browserLogin = func(ctx context.Context, dir string, headless bool) (*db.Session, error) {
		return &db.Session{SessionID: "sid", LoginSecure: "secure", ProfileURL: "https://steamcommunity.com/login/home"}, nil
	}
	_, err := execute(t, svc, "login")
	var ce *clierr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clierr.Validation, ce.Type)
	assert.False(t, svc.auth.SessionValid())

	browserLogin = func(ctx context.Context, dir string, headless bool) (*db.Session, error) {
		return nil, errors.New("no browser")
	}
	_, err = execute(t, svc, "login")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clierr.Auth, ce.Type)
}

type stubLoader struct {
	entries []badge.Entry
	err     error
}

func (s stubLoader) LoadTitles(ctx context.Context) ([]badge.Entry, error) { return s.entries, s.err }

func TestCachingLoader(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	entries := []badge.Entry{{ID: "570", Name: "Dota 2", Remaining: badge.Known(2)}}

	got, err := cachingLoader{Loader: stubLoader{entries: entries}, titles: svc.titles}.LoadTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	cached, err := svc.titles.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "570", cached[0].ID)

	_, err = cachingLoader{Loader: stubLoader{err: badge.ErrRetriesExhausted}, titles: svc.titles}.LoadTitles(ctx)
	assert.ErrorIs(t, err, badge.ErrRetriesExhausted)
	cached, err = svc.titles.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1, "a failed load keeps the previous cache")
}

func TestInitCmd(t *testing.T) {
	svc, _ := newTestServices(t)
	out, err := executeWithInput(t, svc, "/opt/idle/steam-idle\n", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Path to the idle helper")
	assert.Contains(t, out, "cardidle login")
	assert.Equal(t, "/opt/idle/steam-idle", svc.cfg.Values().HelperPath)

	_, err = executeWithInput(t, svc, "", "init")
	require.NoError(t, err)
	assert.Equal(t, "/opt/idle/steam-idle", svc.cfg.Values().HelperPath, "an empty answer keeps the current path")
}
