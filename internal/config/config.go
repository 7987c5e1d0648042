package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Defaults mirror the reference rendering geometry: a 360pt square figure with
// the axes area spanning [0.05, 0.98] of it on both dimensions.
const (
	DefaultTimePerMove  = time.Second
	DefaultThreads      = 4
	DefaultMateScoreCap = 10000 // centipawns
	DefaultPlotScale    = 8.0
	DefaultPlotEpsilon  = 0.05
	DefaultSize         = 360.0
	DefaultMarginLow    = 0.05
	DefaultMarginHigh   = 0.98
	DefaultColumns      = 4
	DefaultThumbSize    = 180
)

type AppConfig struct {
	EnginePath  string        `yaml:"engine"`
	Threads     int           `yaml:"threads"`
	TimePerMove time.Duration `yaml:"time_per_move"`

	MateScoreCap int     `yaml:"mate_score_cap"`
	PlotScale    float64 `yaml:"plot_scale"`
	PlotEpsilon  float64 `yaml:"plot_epsilon"`
	Size         float64 `yaml:"size"`
	MarginLow    float64 `yaml:"margin_low"`
	MarginHigh   float64 `yaml:"margin_high"`

	OutputDir   string `yaml:"output_dir"`
	HTMLOutput  string `yaml:"html"`
	TemplateDir string `yaml:"template_dir"`
	CSSPath     string `yaml:"css"`

	MaxGames   int  `yaml:"max_games"`
	Columns    int  `yaml:"columns"`
	DryRun     bool `yaml:"dry_run"`
	Thumbnails bool `yaml:"thumbnails"`
	ThumbSize  int  `yaml:"thumb_size"`
}

// Load builds the configuration from defaults, then the CHESSTOC_* environment,
// then an optional YAML file (CHESSTOC_CONFIG or the path argument).
func Load(configPath string) (*AppConfig, error) {
	cfg := &AppConfig{
		EnginePath:   "stockfish",
		Threads:      DefaultThreads,
		TimePerMove:  DefaultTimePerMove,
		MateScoreCap: DefaultMateScoreCap,
		PlotScale:    DefaultPlotScale,
		PlotEpsilon:  DefaultPlotEpsilon,
		Size:         DefaultSize,
		MarginLow:    DefaultMarginLow,
		MarginHigh:   DefaultMarginHigh,
		OutputDir:    ".",
		Columns:      DefaultColumns,
		ThumbSize:    DefaultThumbSize,
	}

	cfg.applyEnv()

	path := strings.TrimSpace(configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("CHESSTOC_CONFIG"))
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("CHESSTOC_ENGINE")); v != "" {
		c.EnginePath = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESSTOC_THREADS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Threads = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESSTOC_TIME_PER_MOVE")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.TimePerMove = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESSTOC_OUTPUT_DIR")); v != "" {
		c.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv("CHESSTOC_TEMPLATE_DIR")); v != "" {
		c.TemplateDir = v
	}
}

func (c *AppConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func (c *AppConfig) validate() error {
	if strings.TrimSpace(c.EnginePath) == "" {
		return fmt.Errorf("engine path is required")
	}
	if c.TimePerMove <= 0 {
		return fmt.Errorf("time per move must be positive: %v", c.TimePerMove)
	}
	if c.MateScoreCap <= 0 {
		return fmt.Errorf("mate score cap must be positive: %d", c.MateScoreCap)
	}
	if c.PlotScale <= 0 {
		return fmt.Errorf("plot scale must be positive: %v", c.PlotScale)
	}
	if c.Size <= 0 {
		return fmt.Errorf("size must be positive: %v", c.Size)
	}
	if c.MarginLow < 0 || c.MarginHigh <= c.MarginLow || c.MarginHigh > 1 {
		return fmt.Errorf("margins out of range: low=%v high=%v", c.MarginLow, c.MarginHigh)
	}
	if c.Columns <= 0 {
		return fmt.Errorf("columns must be positive: %d", c.Columns)
	}
	return nil
}
