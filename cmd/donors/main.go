// Package main is the entry point for the donors console.
//
// donors records blood donor profiles in a flat file and answers two
// questions: who can give blood group X near location Y, and whether a given
// donor may donate again today. Configuration is read from CLI flags and
// donors.yaml in the data directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/maruel/donors/internal/config"
	"github.com/maruel/donors/internal/console"
	"github.com/maruel/donors/internal/donordb"
	"github.com/maruel/donors/internal/eligibility"
	"github.com/maruel/donors/internal/validate"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "donors: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	dataDir := flag.String("data-dir", "./data", "Data directory")
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	watch := flag.Bool("watch", true, "Warn when another process modifies the donor file")
	configSchema := flag.Bool("config-schema", false, "Print the JSON schema of "+config.FileName+" and exit")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}
	if *configSchema {
		b, err := config.Schema()
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelWarn)
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			val := a.Value.Any()
			skip := false
			switch t := val.(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case uint64:
				skip = t == 0
			case int64:
				skip = t == 0
			case float64:
				skip = t == 0
			case time.Time:
				skip = t.IsZero()
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	// Load donors.yaml (creates with defaults if missing).
	cfg, err := config.Load(*dataDir)
	if err != nil {
		return err
	}

	// Explicit flags win over the file.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if !set["log-level"] {
		*logLevel = cfg.LogLevel
	}
	level, err := parseLevel(*logLevel)
	if err != nil {
		return err
	}
	ll.Set(level)

	store, err := donordb.Open(cfg.DataPath(*dataDir))
	if err != nil {
		return fmt.Errorf("failed to open donor file: %w", err)
	}
	slog.InfoContext(ctx, "Loaded donors", "path", store.Path(), "count", store.Cache().Len())

	if *watch {
		err := watchDataFile(ctx, store, func(msg string) {
			slog.WarnContext(ctx, msg, "path", store.Path())
		})
		if err != nil {
			return fmt.Errorf("failed to watch donor file: %w", err)
		}
	}

	if isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Printf("Donor file: %s (%d donors)\n", store.Path(), store.Cache().Len())
	}
	rules := eligibility.Rules{MinGapMonths: cfg.MinGapMonths}
	ui := console.New(os.Stdin, os.Stdout, store, validate.New(cfg.MinAge, cfg.MaxAge), rules)
	return ui.Run(ctx)
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", s)
	}
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("donors %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}
