package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pgnkit/chesstoc/internal/config"
	"github.com/pgnkit/chesstoc/internal/obslog"
	"github.com/pgnkit/chesstoc/internal/pipeline"
)

type rootFlags struct {
	configPath  string
	engine      string
	timePerMove time.Duration
	threads     int
	maxGames    int
	columns     int
	outputDir   string
	html        string
	templateDir string
	cssPath     string
	dryRun      bool
	thumbnails  bool
	thumbSize   int
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "chesstoc [pgn-file]",
		Short: "Build a graphical table of contents for a PGN game collection",
		Long: `chesstoc reads a PGN file, runs an engine over every position of every
game, and writes per-game SVG artifacts plus an HTML index: the final
position of each game overlaid with its evaluation curve.

With no file argument (or "-") the PGN is read from standard input.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	f.StringVarP(&flags.engine, "engine", "e", "", "UCI engine binary")
	f.DurationVarP(&flags.timePerMove, "time-per-move", "t", 0, "engine budget per full move")
	f.IntVar(&flags.threads, "threads", 0, "engine thread count")
	f.IntVarP(&flags.maxGames, "maxgames", "m", 0, "stop after this many games (0 = all)")
	f.IntVar(&flags.columns, "columns", 0, "columns in the HTML table")
	f.StringVarP(&flags.outputDir, "output-dir", "d", "", "directory for the SVG artifacts")
	f.StringVarP(&flags.html, "html", "o", "", "write the HTML index to this file")
	f.StringVarP(&flags.templateDir, "template-dir", "T", "", "directory with a custom template.html")
	f.StringVar(&flags.cssPath, "css", "", "custom stylesheet to inline")
	f.BoolVar(&flags.dryRun, "dryrun", false, "render boards only; skip the engine")
	f.BoolVar(&flags.thumbnails, "thumbnails", false, "also rasterize PNG thumbnails")
	f.IntVar(&flags.thumbSize, "thumb-size", 0, "thumbnail side in pixels")

	return cmd
}

func run(cmd *cobra.Command, args []string, flags rootFlags) error {
	if err := obslog.InitFromEnv(); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log := obslog.L()
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, flags, cfg)

	input, name, err := openInput(args)
	if err != nil {
		return err
	}
	defer input.Close()

	p := pipeline.New(cfg, log)
	log.Info("starting run",
		zap.String("run_id", p.RunID()),
		zap.String("input", name),
		zap.String("engine", cfg.EnginePath),
		zap.Duration("time_per_move", cfg.TimePerMove),
		zap.Bool("dry_run", cfg.DryRun))

	return p.Run(cmd.Context(), input)
}

// applyFlags lays explicitly-set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, flags rootFlags, cfg *config.AppConfig) {
	set := cmd.Flags().Changed
	if set("engine") {
		cfg.EnginePath = flags.engine
	}
	if set("time-per-move") {
		cfg.TimePerMove = flags.timePerMove
	}
	if set("threads") {
		cfg.Threads = flags.threads
	}
	if set("maxgames") {
		cfg.MaxGames = flags.maxGames
	}
	if set("columns") {
		cfg.Columns = flags.columns
	}
	if set("output-dir") {
		cfg.OutputDir = flags.outputDir
	}
	if set("html") {
		cfg.HTMLOutput = flags.html
	}
	if set("template-dir") {
		cfg.TemplateDir = flags.templateDir
	}
	if set("css") {
		cfg.CSSPath = flags.cssPath
	}
	if set("dryrun") {
		cfg.DryRun = flags.dryRun
	}
	if set("thumbnails") {
		cfg.Thumbnails = flags.thumbnails
	}
	if set("thumb-size") {
		cfg.ThumbSize = flags.thumbSize
	}
}

func openInput(args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), "stdin", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("open pgn %q: %w", args[0], err)
	}
	return f, args[0], nil
}
