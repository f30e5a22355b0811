package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/habedi/cardidle/badge"
	"github.com/habedi/cardidle/idle"
	"github.com/habedi/cardidle/pkg/validation"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	CfgFile = "settings.toml"
	// HomeEnv overrides the data directory.
	HomeEnv = "CARDIDLE_HOME"
)

var ErrUnknownKey = errors.New("unknown setting")

// Dir returns the directory holding settings, the database and logs. It is
// CARDIDLE_HOME when set, then $XDG_DATA_HOME/cardidle, then ~/.cardidle.
func Dir() string {
	if d := os.Getenv(HomeEnv); d != "" {
		return d
	}
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "cardidle")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to find the home directory, using the temp directory")
		return filepath.Join(os.TempDir(), "cardidle")
	}
	return filepath.Join(home, ".cardidle")
}

// Values is the on-disk settings file.
type Values struct {
	OnlyOneGameIdle bool     `toml:"only_one_game_idle"`
	OneThenMany     bool     `toml:"one_then_many"`
	FastMode        bool     `toml:"fast_mode"`
	WhitelistMode   bool     `toml:"whitelist_mode"`
	IdleOnlyPlayed  bool     `toml:"idle_only_played"`
	Sort            string   `toml:"sort" validate:"oneof=default mostcards leastcards"`
	Blacklist       []string `toml:"blacklist" validate:"dive,number"`
	Whitelist       []string `toml:"whitelist" validate:"dive,number"`

	ShutdownOnDone bool   `toml:"shutdown_on_done"`
	NoSleep        bool   `toml:"no_sleep"`
	IgnoreClient   bool   `toml:"ignore_client"`
	HelperPath     string `toml:"helper_path"`
	SoundFile      string `toml:"sound_file,omitempty"`

	// Threads bounds concurrent badge page fetches.
	Threads           int     `toml:"threads"`
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gt=0,lte=10"`
}

// Defaults returns the settings used when no file exists.
func Defaults() Values {
	return Values{
		Sort:              badge.SortDefault,
		Blacklist:         []string{},
		Whitelist:         []string{},
		HelperPath:        defaultHelperPath(),
		Threads:           4,
		RequestsPerSecond: 2,
	}
}

func defaultHelperPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "steam-idle"
	}
	return filepath.Join(filepath.Dir(exe), "steam-idle")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateStrategy, Values{})
	return v
}

// validateStrategy allows at most one idling strategy flag.
func validateStrategy(sl validator.StructLevel) {
	v, ok := sl.Current().Interface().(Values)
	if !ok {
		return
	}
	n := 0
	for _, on := range []bool{v.OnlyOneGameIdle, v.OneThenMany, v.FastMode} {
		if on {
			n++
		}
	}
	if n > 1 {
		sl.ReportError(v.FastMode, "FastMode", "fast_mode", "strategy", "")
	}
}

// Validate checks v and returns a readable error.
func (v Values) Validate() error {
	if err := validation.ValidateThreadCount(v.Threads); err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				if fe.Tag() == "strategy" {
					msgs = append(msgs, "only one of only_one_game_idle, one_then_many and fast_mode may be enabled")
					continue
				}
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// Instance is the loaded settings file. It is safe for concurrent use.
type Instance struct {
	path     string
	defaults Values
	mu       sync.RWMutex
	vals     Values
	// modTime is the file's modification time as of the last load or save.
	modTime atomic.Int64
}

// NewConfig loads dir/settings.toml, writing the defaults first when it does not exist.
func NewConfig(dir string) (*Instance, error) {
	cfg := &Instance{
		path:     filepath.Join(dir, CfgFile),
		defaults: Defaults(),
		vals:     Defaults(),
	}

	if _, err := os.Stat(cfg.path); os.IsNotExist(err) {
		log.Info().Str("path", cfg.path).Msg("Saving new default settings to disk")
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the settings file location.
func (c *Instance) Path() string { return c.path }

// Load re-reads the file. Keys missing from the file keep their defaults.
func (c *Instance) Load() error {
	c.markSeen()
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	newVals := c.defaults
	if err := toml.Unmarshal(data, &newVals); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := newVals.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.vals = newVals
	c.mu.Unlock()
	return nil
}

// Save writes the current values to disk.
func (c *Instance) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.save()
}

func (c *Instance) save() error {
	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	c.markSeen()
	return nil
}

func (c *Instance) markSeen() {
	if info, err := os.Stat(c.path); err == nil {
		c.modTime.Store(info.ModTime().UnixNano())
	}
}

// refresh reloads the file when another process changed it since the last
// load or save. An invalid file is logged and the current values are kept.
func (c *Instance) refresh() {
	info, err := os.Stat(c.path)
	if err != nil || info.ModTime().UnixNano() == c.modTime.Load() {
		return
	}
	log.Debug().Str("path", c.path).Msg("Settings file changed on disk, reloading")
	if err := c.Load(); err != nil {
		log.Warn().Err(err).Msg("Ignoring invalid settings file")
	}
}

// Values returns a copy of the current settings.
func (c *Instance) Values() Values {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := c.vals
	v.Blacklist = slices.Clone(c.vals.Blacklist)
	v.Whitelist = slices.Clone(c.vals.Whitelist)
	return v
}

// Snapshot returns the idling preferences as an immutable value. Changes made
// to the file by another process are picked up first.
func (c *Instance) Snapshot() idle.Settings {
	c.refresh()
	v := c.Values()
	return idle.Settings{
		OnlyOneGameIdle: v.OnlyOneGameIdle,
		OneThenMany:     v.OneThenMany,
		FastMode:        v.FastMode,
		WhitelistMode:   v.WhitelistMode,
		IdleOnlyPlayed:  v.IdleOnlyPlayed,
		Sort:            v.Sort,
		Blacklist:       v.Blacklist,
		Whitelist:       v.Whitelist,
	}
}

// ConsumeShutdownOnDone returns the shutdown flag and clears it on disk so the
// shutdown happens at most once per opt-in.
func (c *Instance) ConsumeShutdownOnDone() (bool, error) {
	c.refresh()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.vals.ShutdownOnDone {
		return false, nil
	}
	c.vals.ShutdownOnDone = false
	return true, c.save()
}

// Update applies fn to a copy of the settings, validates the result and saves it.
// Nothing changes when fn or validation fails.
func (c *Instance) Update(fn func(v *Values) error) error {
	c.refresh()
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.vals
	next.Blacklist = slices.Clone(c.vals.Blacklist)
	next.Whitelist = slices.Clone(c.vals.Whitelist)
	if err := fn(&next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	c.vals = next
	return c.save()
}

// Set assigns a setting by its file key, parsing value for the field's type.
func (c *Instance) Set(key, value string) error {
	setter, ok := setters[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return c.Update(func(v *Values) error {
		if err := setter(v, value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
}

// Keys lists the keys accepted by Set.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

var setters = map[string]func(v *Values, s string) error{
	"only_one_game_idle": boolSetter(func(v *Values) *bool { return &v.OnlyOneGameIdle }),
	"one_then_many":      boolSetter(func(v *Values) *bool { return &v.OneThenMany }),
	"fast_mode":          boolSetter(func(v *Values) *bool { return &v.FastMode }),
	"whitelist_mode":     boolSetter(func(v *Values) *bool { return &v.WhitelistMode }),
	"idle_only_played":   boolSetter(func(v *Values) *bool { return &v.IdleOnlyPlayed }),
	"shutdown_on_done":   boolSetter(func(v *Values) *bool { return &v.ShutdownOnDone }),
	"no_sleep":           boolSetter(func(v *Values) *bool { return &v.NoSleep }),
	"ignore_client":      boolSetter(func(v *Values) *bool { return &v.IgnoreClient }),
	"sort": func(v *Values, s string) error {
		v.Sort = strings.ToLower(s)
		return nil
	},
	"helper_path": func(v *Values, s string) error {
		v.HelperPath = s
		return nil
	},
	"sound_file": func(v *Values, s string) error {
		v.SoundFile = s
		return nil
	},
	"threads": func(v *Values, s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", s)
		}
		v.Threads = n
		return nil
	},
	"requests_per_second": func(v *Values, s string) error {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", s)
		}
		v.RequestsPerSecond = f
		return nil
	},
}

func boolSetter(field func(v *Values) *bool) func(v *Values, s string) error {
	return func(v *Values, s string) error {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", s)
		}
		*field(v) = b
		return nil
	}
}
