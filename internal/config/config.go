package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds server settings. Precedence, lowest first: defaults, YAML
// file, MVIEWER_* environment variables, command line flags.
type Config struct {
	Port           int      `yaml:"port"`
	WorkspaceRoot  string   `yaml:"workspace_root"`
	MontageBin     string   `yaml:"montage_bin"`
	StaticDir      string   `yaml:"static_dir"`
	ImageFile      string   `yaml:"image_file"`
	PickRadius     int      `yaml:"pick_radius"`
	CanvasWidth    int      `yaml:"canvas_width"`
	CanvasHeight   int      `yaml:"canvas_height"`
	MaxMessageSize int64    `yaml:"max_message_size"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"`
	SampleArchive  string   `yaml:"sample_archive"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Default() *Config {
	return &Config{
		Port:           8888,
		WorkspaceRoot:  "./workspaces",
		ImageFile:      "viewer.png",
		PickRadius:     31,
		CanvasWidth:    1000,
		CanvasHeight:   1000,
		MaxMessageSize: 1 << 20,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads defaults, then the YAML file at path if one is given, then the environment
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"MVIEWER_WORKSPACE_ROOT": &c.WorkspaceRoot,
		"MVIEWER_MONTAGE_BIN":    &c.MontageBin,
		"MVIEWER_STATIC_DIR":     &c.StaticDir,
		"MVIEWER_IMAGE_FILE":     &c.ImageFile,
		"MVIEWER_LOG_LEVEL":      &c.LogLevel,
		"MVIEWER_LOG_FORMAT":     &c.LogFormat,
		"MVIEWER_SAMPLE_ARCHIVE": &c.SampleArchive,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MVIEWER_PORT":          &c.Port,
		"MVIEWER_PICK_RADIUS":   &c.PickRadius,
		"MVIEWER_CANVAS_WIDTH":  &c.CanvasWidth,
		"MVIEWER_CANVAS_HEIGHT": &c.CanvasHeight,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("MVIEWER_MAX_MESSAGE_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MVIEWER_MAX_MESSAGE_SIZE %q: %w", v, err)
		}
		c.MaxMessageSize = n
	}

	if v, ok := os.LookupEnv("MVIEWER_ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.WorkspaceRoot == "" {
		return fmt.Errorf("workspace root must be set")
	}
	if c.ImageFile == "" {
		return fmt.Errorf("image file name must be set")
	}
	if c.PickRadius <= 0 {
		return fmt.Errorf("pick radius must be positive, got %d", c.PickRadius)
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("canvas must be positive, got %dx%d", c.CanvasWidth, c.CanvasHeight)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("max message size must be positive, got %d", c.MaxMessageSize)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}

// NewLogger builds the process logger described by LogLevel and LogFormat
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
