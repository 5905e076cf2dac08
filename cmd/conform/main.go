// Command conform converts one downloaded address source into the
// canonical LON,LAT,NUMBER,STREET CSV.
//
// Usage:
//
//	conform [-v] [-l logfile] source.json source-data dest.csv
//
// Exit status is 0 on success and 1 on any failure, in which case no
// destination file is written.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/addrconform/internal/config"
	"github.com/JonMunkholm/addrconform/internal/core"
	"github.com/JonMunkholm/addrconform/internal/core/streets"
	"github.com/JonMunkholm/addrconform/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

type options struct {
	verbose    bool
	logfile    string
	sourceJSON string
	sourcePath string
	destPath   string
}

var errUsage = errors.New("usage: conform [-v] [-l logfile] source.json source-data dest.csv")

// parseArgs accepts flags before, between or after the positional arguments.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("conform", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.verbose, "v", false, "turn on verbose logging")
	fs.StringVar(&opts.logfile, "l", "", "optional log file name")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return opts, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	if len(positional) != 3 {
		return opts, errUsage
	}
	opts.sourceJSON, opts.sourcePath, opts.destPath = positional[0], positional[1], positional[2]
	return opts, nil
}

func run(args []string, stderr io.Writer) int {
	// .env never overrides explicit environment for the CLI.
	_ = godotenv.Load()

	opts, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logOut := stderr
	if opts.logfile != "" {
		f, err := os.OpenFile(opts.logfile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(stderr, "open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logging.SetupWriter(logOut, level, "text")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := conform(cfg, opts); err != nil {
		if core.IsSoftFailure(err) {
			slog.Warn("skipping source", "source", opts.sourceJSON, "reason", err)
		} else {
			slog.Error("conform failed", "source", opts.sourceJSON, "error", err)
		}
		msg := err.Error()
		if core.IsUserFacing(err) {
			msg = core.FormatUserError(err)
		}
		fmt.Fprintf(stderr, "conform %s: %s\n", opts.sourceJSON, msg)
		return 1
	}
	return 0
}

func conform(cfg *config.Config, opts options) error {
	data, err := os.ReadFile(opts.sourceJSON)
	if err != nil {
		return fmt.Errorf("read source definition: %w", err)
	}
	def, err := core.ParseSourceDefinition(data)
	if err != nil {
		return err
	}
	if _, err := os.Stat(opts.sourcePath); err != nil {
		return fmt.Errorf("%w: %v", core.ErrSourceNotFound, err)
	}

	expander, err := streets.NewExpander(cfg.Conform.StreetCacheSize)
	if err != nil {
		return err
	}
	conformer := core.NewConformer(cfg.Conform.OGR2OGRPath, expander.Expand)

	result, err := conformer.Conform(def, opts.sourcePath, opts.destPath)
	if err != nil {
		return err
	}
	slog.Info("wrote canonical csv", "dest", result.Path, "rows", result.Rows, "elapsed", result.Elapsed)
	return nil
}
