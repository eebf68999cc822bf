package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultStateName      = "state.db"
	DefaultLogName        = "taskdeck.log"
	DefaultAPIBaseURL     = "http://localhost:5000"

	appDirName = "taskdeck"
	envConfig  = "TASKDECK_CONFIG"
)

type Keymap struct {
	Quit     string `toml:"quit"`
	Add      string `toml:"add"`
	Up       string `toml:"up"`
	Down     string `toml:"down"`
	NextTab  string `toml:"next_tab"`
	PrevTab  string `toml:"prev_tab"`
	Toggle   string `toml:"toggle"`
	Edit     string `toml:"edit"`
	Delete   string `toml:"delete"`
	Confirm  string `toml:"confirm"`
	Cancel   string `toml:"cancel"`
	Filter   string `toml:"filter"`
	Sort     string `toml:"sort"`
	Search   string `toml:"search"`
	Dismiss  string `toml:"dismiss"`
	Refresh  string `toml:"refresh"`
	Logout   string `toml:"logout"`
	Register string `toml:"register"`
}

type Config struct {
	APIBaseURL string `toml:"api_base_url"`
	StatePath  string `toml:"state_path"`
	LogPath    string `toml:"log_path"`
	LogLevel   string `toml:"log_level"`
	// RequestTimeout is a Go duration. Empty means requests never time out.
	RequestTimeout string `toml:"request_timeout"`
	Locale         string `toml:"locale"`
	NoticeDuration string `toml:"notice_duration"`
	DefaultFilter  string `toml:"default_filter"`
	// DefaultSort applies to every tab. Empty sorts tasks by due date and
	// leaves projects and notes in server order.
	DefaultSort    string `toml:"default_sort"`
	Keys           Keymap `toml:"keys"`
}

// ResolveConfigPath picks $TASKDECK_CONFIG, then the XDG config home, then
// ~/.config.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(envConfig)); p != "" {
		return p
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appDirName, DefaultConfigFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(home, ".config", appDirName, DefaultConfigFileName)
}

// LoadOrCreate reads path, writing the defaults there first if it does not
// exist. Relative file paths in the result are resolved against the
// directory holding the config file.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.StatePath == "" {
		cfg.StatePath = DefaultStateName
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg.resolve(filepath.Dir(path)), nil
}

// Timeout returns the per-request timeout, zero for none.
func (c Config) Timeout() time.Duration {
	d, _ := parseDuration(c.RequestTimeout)
	return d
}

// NoticeTTL returns how long notices stay up, zero for the default.
func (c Config) NoticeTTL() time.Duration {
	d, _ := parseDuration(c.NoticeDuration)
	return d
}

func (c Config) validate() error {
	if _, err := parseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	if _, err := parseDuration(c.NoticeDuration); err != nil {
		return fmt.Errorf("notice_duration: %w", err)
	}
	return nil
}

func (c Config) resolve(dir string) Config {
	c.StatePath = resolvePath(dir, c.StatePath)
	c.LogPath = resolvePath(dir, c.LogPath)
	return c
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "file:") {
		return p
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return filepath.Join(dir, p)
}

func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", v)
	}
	return d, nil
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		APIBaseURL:     DefaultAPIBaseURL,
		StatePath:      DefaultStateName,
		LogPath:        DefaultLogName,
		LogLevel:       "info",
		Locale:         "en",
		NoticeDuration: "5s",
		DefaultFilter:  "all",
		DefaultSort:    "",
		Keys: Keymap{
			Quit:     "q",
			Add:      "a",
			Up:       "k",
			Down:     "j",
			NextTab:  "tab",
			PrevTab:  "shift+tab",
			Toggle:   " ",
			Edit:     "e",
			Delete:   "d",
			Confirm:  "enter",
			Cancel:   "esc",
			Filter:   "f",
			Sort:     "s",
			Search:   "/",
			Dismiss:  "x",
			Refresh:  "r",
			Logout:   "L",
			Register: "ctrl+r",
		},
	}
}
