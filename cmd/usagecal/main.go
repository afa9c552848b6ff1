package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/usagecal/internal/calibration"
	"github.com/abdul-hamid-achik/usagecal/internal/config"
	ucerr "github.com/abdul-hamid-achik/usagecal/internal/errors"
	"github.com/abdul-hamid-achik/usagecal/internal/logging"
	"github.com/abdul-hamid-achik/usagecal/internal/metrics"
	"github.com/abdul-hamid-achik/usagecal/internal/monitor"
	"github.com/abdul-hamid-achik/usagecal/internal/store"
	"github.com/abdul-hamid-achik/usagecal/internal/tui"
	"github.com/abdul-hamid-achik/usagecal/internal/ui"
	"github.com/abdul-hamid-achik/usagecal/internal/usage"
	"github.com/abdul-hamid-achik/usagecal/internal/window"
	"github.com/alecthomas/kong"
)

var Version = "dev"

// CLI is the command line of usagecal. Modes are mutually exclusive; with
// none given, positional percentages trigger a calibration.
type CLI struct {
	Status    bool `help:"Show calibration status per window." xor:"mode"`
	History   bool `help:"Dump the calibration store as JSON." xor:"mode"`
	Calibrate bool `help:"Prompt for actual usage and record a training sample (no override)." xor:"mode"`
	Watch     bool `help:"Run the monitor loop until interrupted." xor:"mode"`
	Once      bool `help:"Run a single monitor tick." xor:"mode"`

	Interval time.Duration `help:"Time between monitor ticks (default from config)." placeholder:"DUR"`
	Follow   bool          `help:"Also recompute when the usage snapshot changes."`

	Prune string `help:"Keep only the newest samples of a window." placeholder:"KEY" xor:"mode"`
	Keep  int    `help:"Samples to keep with --prune." default:"5"`
	Reset string `help:"Delete all data of a window." placeholder:"KEY" xor:"mode"`

	Config   string           `short:"c" help:"Path to config file." type:"path"`
	LogLevel string           `help:"Console log level (debug, info, warn, error)." placeholder:"LEVEL"`
	Verbose  bool             `help:"Show debug logs on the console."`
	Debug    bool             `help:"Write a JSONL debug trace (see USAGECAL_DEBUG_DIR)."`
	Version  kong.VersionFlag `short:"v" help:"Show version."`

	Actuals []string `arg:"" optional:"" help:"Actual session and, optionally, weekly usage percent." placeholder:"PERCENT"`
}

func (c *CLI) hasMode() bool {
	return c.Status || c.History || c.Calibrate || c.Watch || c.Once || c.Prune != "" || c.Reset != ""
}

// Validate is called by kong after parsing.
func (c *CLI) Validate() error {
	if len(c.Actuals) > 2 {
		return fmt.Errorf("expected at most two percentages, got %d", len(c.Actuals))
	}
	if len(c.Actuals) > 0 && c.hasMode() {
		return fmt.Errorf("percentages cannot be combined with a mode flag")
	}
	return nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("usagecal"),
		kong.Description("Calibrate the local usage monitor against the provider's reported usage."),
		kong.UsageOnError(),
		kong.Vars{"version": "usagecal version " + Version},
	)

	// Logging must not stop the tool; it degrades to a nop logger.
	if _, err := logging.Init(cli.loggingConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	defer func() { _ = logging.Close() }()
	if l := logging.Global(); l.IsTracingEnabled() {
		fmt.Fprintf(os.Stderr, "Debug trace session %s\n", l.GetSessionID())
	}

	output := ui.NewOutputHandler()
	if err := run(&cli, output); err != nil {
		if ucerr.GetCategory(err) == ucerr.CategoryConfig {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logging.LogError("Command failed", logging.Error(err))
		output.ErrorStr(ucerr.GetUserMessage(err))
		return
	}

	if !cli.hasMode() && len(cli.Actuals) == 0 {
		_ = ctx.PrintUsage(false)
	}
}

func (c *CLI) loggingConfig() logging.Config {
	cfg := logging.ConfigFromEnv()
	if c.Verbose {
		cfg = cfg.WithVerbose(true)
	}
	if c.Debug {
		cfg = cfg.WithDebugMode(true)
	}
	if c.LogLevel != "" {
		cfg = cfg.WithLevel(logging.ParseLevel(c.LogLevel))
	}
	return cfg
}

// app holds everything a mode needs once config is loaded.
type app struct {
	cfg    *config.Config
	engine *calibration.Engine
	reader *usage.Reader
	out    *ui.OutputHandler
	log    *logging.Logger
}

func newApp(cfg *config.Config, out *ui.OutputHandler) *app {
	engine := calibration.NewEngine(store.NewFile(cfg.Paths.Store), calibration.Options{
		BaseHour:          cfg.SessionBaseHour,
		BaselineThreshold: cfg.BaselineThreshold,
		Bounds: calibration.Bounds{
			Min: calibration.Rate(cfg.MinLearnedLimit),
			Max: calibration.Rate(cfg.MaxLearnedLimit),
		},
		Location: cfg.Location(),
	})
	return &app{
		cfg:    cfg,
		engine: engine,
		reader: usage.NewReader(cfg.Paths.Usage),
		out:    out,
		log:    logging.Global().WithPrefix("cli"),
	}
}

func run(cli *CLI, out *ui.OutputHandler) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	a := newApp(cfg, out)
	a.log.Debug("usagecal started", logging.Path(cfg.ConfigPath()))

	switch {
	case cli.Status:
		return a.status()
	case cli.History:
		return a.history()
	case cli.Calibrate:
		return a.calibrate()
	case cli.Watch:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.newMonitor(cli).Run(ctx)
	case cli.Once:
		res, err := a.newMonitor(cli).Tick()
		out.TickLine(res, err, time.Now())
		if err != nil && !errors.Is(err, usage.ErrNoData) {
			return err
		}
		return nil
	case cli.Prune != "":
		return a.prune(window.Key(cli.Prune), cli.Keep)
	case cli.Reset != "":
		return a.reset(window.Key(cli.Reset))
	case len(cli.Actuals) > 0:
		return a.applyActuals(cli.Actuals)
	}
	return nil
}

// applyActuals is the positional mode: record the sample and install
// overrides derived from the user's percentages.
func (a *app) applyActuals(args []string) error {
	session, err := ui.ParsePercent(args[0])
	if err != nil {
		return err
	}
	var weekly *float64
	if len(args) > 1 {
		w, err := ui.ParsePercent(args[1])
		if err != nil {
			return err
		}
		weekly = &w
	}

	snap, err := a.reader.Read()
	if err != nil {
		return err
	}
	res, err := a.engine.ApplyActuals(snap, session, weekly)
	if err != nil {
		return err
	}
	a.out.ActionSummary(res)
	return nil
}

func (a *app) calibrate() error {
	snap, err := a.reader.Read()
	if err != nil {
		return err
	}

	var session float64
	var weekly *float64
	if tui.IsTTYAvailable() {
		res, err := tui.RunPrompt(snap.Monitor()*100, snap.WeeklyMonitor()*100)
		if err != nil {
			return err
		}
		if res.Cancelled {
			a.out.Info("Calibration cancelled")
			return nil
		}
		session, weekly = res.Session, res.Weekly
	} else {
		a.out.Info(fmt.Sprintf("Monitor shows %.1f%% session, %.1f%% weekly", snap.Monitor()*100, snap.WeeklyMonitor()*100))
		session, weekly, err = ui.NewInputHandler().ReadActuals()
		if err != nil {
			return err
		}
	}

	res, err := a.engine.RecordAndLearn(snap, session, weekly)
	if err != nil {
		return err
	}
	a.out.LegacySummary(res)
	return nil
}

func (a *app) status() error {
	sums, err := a.engine.Summaries()
	if err != nil {
		return err
	}
	var current window.Key
	if snap, err := a.reader.Read(); err == nil {
		current = a.engine.SessionKey(snap)
	}
	a.out.Header("Calibration status")
	a.out.StatusCards(sums, current, a.engine.Now())
	return nil
}

func (a *app) history() error {
	st, err := a.engine.Store()
	if err != nil {
		return err
	}
	doc, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	a.out.JSON(doc)
	return nil
}

func (a *app) prune(key window.Key, keep int) error {
	removed, err := a.engine.Prune(key, keep)
	if err != nil {
		return err
	}
	a.out.Success(fmt.Sprintf("Removed %d samples from %s, kept the newest %d", removed, key, keep))
	return nil
}

func (a *app) reset(key window.Key) error {
	if err := a.engine.Reset(key); err != nil {
		return err
	}
	a.out.Success(fmt.Sprintf("Deleted all calibration data for %s", key))
	return nil
}

func (a *app) newMonitor(cli *CLI) *monitor.Monitor {
	interval := a.cfg.Monitor.Interval
	if cli.Interval > 0 {
		interval = cli.Interval
	}
	return monitor.New(a.engine, a.reader, monitor.Options{
		Output:          a.cfg.Paths.Output,
		MetricsTextfile: a.cfg.Paths.MetricsTextfile,
		Metrics:         metrics.New(),
		Interval:        interval,
		Follow:          cli.Follow || a.cfg.Monitor.Follow,
		MinSpacing:      a.cfg.Monitor.MinSpacing,
		OnTick: func(res *monitor.TickResult, err error) {
			a.out.TickLine(res, err, time.Now())
		},
	})
}
