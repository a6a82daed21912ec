// Package config handles loading and saving storyweb configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/storyweb/config.yaml
//   - Data:   ~/.local/share/storyweb/ (default snapshot location)
//   - State:  ~/.local/state/storyweb/ (debug log)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const appName = "storyweb"

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// CanvasConfig holds the viewport and gesture tuning. Distances are in
// screen pixels.
type CanvasConfig struct {
	ZoomEnterThreshold float64 `yaml:"zoom_enter_threshold" validate:"gt=1"`
	ZoomExitThreshold  float64 `yaml:"zoom_exit_threshold" validate:"gt=0,lt=1"`
	BaseZoom           float64 `yaml:"base_zoom" validate:"gt=0"`
	MinZoom            float64 `yaml:"min_zoom" validate:"gt=0,ltefield=ZoomExitThreshold"`
	MaxZoom            float64 `yaml:"max_zoom" validate:"gtefield=ZoomEnterThreshold"`
	WheelSensitivity   float64 `yaml:"wheel_sensitivity" validate:"gt=0"`
	LinkZoneHeight     float64 `yaml:"link_zone_height" validate:"gt=0"`
	LayoutRadius       float64 `yaml:"layout_radius" validate:"gt=0"`
	CardWidth          float64 `yaml:"card_width" validate:"gt=0"`
	CardHeight         float64 `yaml:"card_height" validate:"gt=0,gtfield=LinkZoneHeight"`
	Friction           float64 `yaml:"friction" validate:"gt=0,lt=1"`
	MinVelocity        float64 `yaml:"min_velocity" validate:"gt=0"`
	ClickSlop          float64 `yaml:"click_slop" validate:"gte=0"`
}

// StorageConfig controls where and how the canvas is persisted.
type StorageConfig struct {
	Backend       string        `yaml:"backend" validate:"oneof=json sqlite"`
	Path          string        `yaml:"path,omitempty"`
	AutosaveDelay time.Duration `yaml:"autosave_delay" validate:"gte=0"`
	Watch         bool          `yaml:"watch"` // reload when another process rewrites the file
}

// UIConfig holds terminal UI settings. One terminal cell stands for
// CellWidth x CellHeight screen pixels.
type UIConfig struct {
	CellWidth      float64       `yaml:"cell_width" validate:"gt=0"`
	CellHeight     float64       `yaml:"cell_height" validate:"gt=0"`
	ContentPreview bool          `yaml:"content_preview"`
	FrameInterval  time.Duration `yaml:"frame_interval" validate:"gt=0"`
}

// Config is the top-level configuration.
type Config struct {
	Canvas  CanvasConfig  `yaml:"canvas"`
	Storage StorageConfig `yaml:"storage"`
	UI      UIConfig      `yaml:"ui"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Canvas: DefaultCanvas(),
		Storage: StorageConfig{
			Backend:       BackendJSON,
			AutosaveDelay: 400 * time.Millisecond,
			Watch:         true,
		},
		UI: UIConfig{
			CellWidth:      8,
			CellHeight:     16,
			ContentPreview: true,
			FrameInterval:  16 * time.Millisecond,
		},
	}
}

// DefaultCanvas returns the default canvas tuning.
func DefaultCanvas() CanvasConfig {
	return CanvasConfig{
		ZoomEnterThreshold: 3,
		ZoomExitThreshold:  0.5,
		BaseZoom:           1,
		MinZoom:            0.2,
		MaxZoom:            4,
		WheelSensitivity:   0.0015,
		LinkZoneHeight:     60,
		LayoutRadius:       300,
		CardWidth:          220,
		CardHeight:         144,
		Friction:           0.92,
		MinVelocity:        0.02,
		ClickSlop:          4,
	}
}

var validate = validator.New()

// Validate checks field constraints and reports every violation.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatFieldError(fe))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gtefield", "ltefield", "gtfield":
		return fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the XDG data directory.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// StateDir returns the XDG state directory.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// SnapshotPath returns the configured snapshot path, or the default one in
// the data directory for the configured backend.
func (c Config) SnapshotPath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	name := "canvas.json"
	if c.Storage.Backend == BackendSQLite {
		name = "canvas.db"
	}
	return filepath.Join(DataDir(), name)
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. Missing keys keep their
// defaults; a missing file yields DefaultConfig.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Storage.Path = expandHome(cfg.Storage.Path)

	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
