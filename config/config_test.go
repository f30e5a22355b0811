package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewConfigWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewConfig(dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, CfgFile))
	v := cfg.Values()
	assert.Equal(t, "default", v.Sort)
	assert.Equal(t, 4, v.Threads)
	assert.False(t, v.ShutdownOnDone)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	dir := t.TempDir()
	data := "fast_mode = true\nblacklist = ['440']\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(data), 0o600))

	cfg, err := NewConfig(dir)
	require.NoError(t, err)
	s := cfg.Snapshot()
	assert.True(t, s.FastMode)
	assert.Equal(t, []string{"440"}, s.Blacklist)
	assert.Equal(t, "default", s.Sort)
	assert.Equal(t, 4, cfg.Values().Threads)
}

func TestLoadRejectsConflictingStrategies(t *testing.T) {
	dir := t.TempDir()
	data := "fast_mode = true\none_then_many = true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(data), 0o600))

	_, err := NewConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only one of")
}

func TestSet(t *testing.T) {
	cfg, err := NewConfig(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.Set("sort", "MostCards"))
	require.NoError(t, cfg.Set("only_one_game_idle", "true"))
	require.NoError(t, cfg.Set("threads", "8"))
	assert.Equal(t, "mostcards", cfg.Values().Sort)
	assert.Equal(t, 8, cfg.Values().Threads)

	assert.ErrorIs(t, cfg.Set("volume", "3"), ErrUnknownKey)
	assert.Error(t, cfg.Set("fast_mode", "yes please"))
	assert.Error(t, cfg.Set("fast_mode", "true"), "conflicts with only_one_game_idle")
	assert.Error(t, cfg.Set("sort", "random"))
	assert.Error(t, cfg.Set("threads", "0"))
	assert.False(t, cfg.Values().FastMode)

	reloaded, err := NewConfig(filepath.Dir(cfg.Path()))
	require.NoError(t, err)
	assert.Equal(t, "mostcards", reloaded.Values().Sort)
	assert.True(t, reloaded.Values().OnlyOneGameIdle)
}

func TestConsumeShutdownOnDone(t *testing.T) {
	cfg, err := NewConfig(t.TempDir())
	require.NoError(t, err)

	on, err := cfg.ConsumeShutdownOnDone()
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, cfg.Set("shutdown_on_done", "true"))
	on, err = cfg.ConsumeShutdownOnDone()
	require.NoError(t, err)
	assert.True(t, on)

	on, err = cfg.ConsumeShutdownOnDone()
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, cfg.Load())
	assert.False(t, cfg.Values().ShutdownOnDone, "the cleared flag is persisted")
}

func TestLists(t *testing.T) {
	cfg, err := NewConfig(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.Add(Blacklist, "440"))
	require.NoError(t, cfg.Add(Blacklist, "440"))
	require.NoError(t, cfg.Add(Whitelist, "570"))
	assert.Equal(t, []string{"440"}, cfg.Values().Blacklist)
	assert.Equal(t, []string{"570"}, cfg.Snapshot().Whitelist)

	assert.Error(t, cfg.Add(Blacklist, "not-an-id"))
	assert.ErrorIs(t, cfg.Add(List("greylist"), "1"), ErrUnknownKey)

	require.NoError(t, cfg.Remove(Blacklist, "440"))
	assert.Empty(t, cfg.Values().Blacklist)
}

func TestSnapshotIsDetached(t *testing.T) {
	cfg, err := NewConfig(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, cfg.Add(Blacklist, "1"))

	s := cfg.Snapshot()
	s.Blacklist[0] = "2"
	assert.Equal(t, []string{"1"}, cfg.Values().Blacklist)
}

func TestStrategyFlagsAreExclusive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := Defaults()
		v.OnlyOneGameIdle = rapid.Bool().Draw(rt, "solo")
		v.OneThenMany = rapid.Bool().Draw(rt, "one_then_many")
		v.FastMode = rapid.Bool().Draw(rt, "fast")

		n := 0
		for _, on := range []bool{v.OnlyOneGameIdle, v.OneThenMany, v.FastMode} {
			if on {
				n++
			}
		}
		err := v.Validate()
		if n > 1 {
			assert.Error(rt, err)
		} else {
			assert.NoError(rt, err)
		}
	})
}

func TestDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)
	t.Setenv("XDG_DATA_HOME", "/xdg")
	assert.Equal(t, home, Dir())

	t.Setenv(HomeEnv, "")
	assert.Equal(t, filepath.Join("/xdg", "cardidle"), Dir())

	t.Setenv("XDG_DATA_HOME", "")
	userHome, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(userHome, ".cardidle"), Dir())
}

// touch moves the file's modification time forward so a change is seen even on
// file systems with coarse timestamps.
func touch(t *testing.T, path string, offset time.Duration) {
	t.Helper()
	ts := time.Now().Add(offset)
	require.NoError(t, os.Chtimes(path, ts, ts))
}

func TestSnapshotSeesChangesFromAnotherInstance(t *testing.T) {
	dir := t.TempDir()
	runner, err := NewConfig(dir)
	require.NoError(t, err)
	editor, err := NewConfig(dir)
	require.NoError(t, err)
	assert.False(t, runner.Snapshot().FastMode)

	require.NoError(t, editor.Set("fast_mode", "true"))
	require.NoError(t, editor.Set("shutdown_on_done", "true"))
	touch(t, runner.Path(), time.Minute)
	assert.True(t, runner.Snapshot().FastMode)

	on, err := runner.ConsumeShutdownOnDone()
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, os.WriteFile(runner.Path(), []byte("sort = 'sideways'\n"), 0o600))
	touch(t, runner.Path(), 2*time.Minute)
	s := runner.Snapshot()
	assert.True(t, s.FastMode, "an invalid file keeps the last good values")
	assert.Equal(t, "default", s.Sort)
}
