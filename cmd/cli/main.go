package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/analysis"
	"github.com/dvloznov/spending-patterns/internal/app"
	"github.com/dvloznov/spending-patterns/internal/config"
	"github.com/dvloznov/spending-patterns/internal/logger"
)

var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if cmd := os.Args[1]; cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage(os.Stdout)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so that stdout carries only the JSON result.
	log := logger.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(logger.Level(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	if err := run(ctx, a, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		} else {
			log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		}
		a.Close()
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Spending Patterns CLI")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  cli <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  ingest        Convert a bank export workbook and replace the transaction table")
	fmt.Fprintln(w, "  overspending  Detect overspending against the configured rules")
	fmt.Fprintln(w, "  recurring     Detect recurring merchants")
	fmt.Fprintln(w, "  time-based    Detect time-of-day, weekday and payday patterns")
	fmt.Fprintln(w, "  stats         Show monthly statistics")
	fmt.Fprintln(w, "  savings       Suggest savings opportunities")
	fmt.Fprintln(w, "  personality   Classify the spending personality")
	fmt.Fprintln(w, "  rules         List overspending rules")
	fmt.Fprintln(w, "  help          Show this help message")
	fmt.Fprintln(w, "\nRun 'cli <command> -h' for more information on a command.")
}

// run executes one subcommand and writes its result as JSON to out.
func run(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	switch cmd {
	case "ingest":
		file := fs.String("file", "", "Path to the .xlsx export")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *file == "" {
			return errors.New("ingest: -file is required")
		}
		content, err := os.ReadFile(*file)
		if err != nil {
			return errors.Wrap(err, "ingest: read file")
		}
		res, err := a.Ingest.Upload(ctx, filepath.Base(*file), content)
		if err != nil {
			return err
		}
		return writeJSON(out, res)

	case "overspending":
		p := dateFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		patterns, err := a.Analysis.Overspending(ctx, *p)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]interface{}{"count": len(patterns), "patterns": patterns})

	case "recurring":
		p := dateFlags(fs)
		minCount := fs.Int("min-count", analysis.DefaultMinCount, "Minimum occurrences per merchant")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		patterns, err := a.Analysis.Recurring(ctx, *p, *minCount)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]interface{}{"count": len(patterns), "patterns": patterns})

	case "time-based":
		p := dateFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		patterns, err := a.Analysis.TimeBased(ctx, *p)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]interface{}{"count": len(patterns), "patterns": patterns})

	case "stats":
		now := time.Now()
		year := fs.Int("year", now.Year(), "Year")
		month := fs.Int("month", int(now.Month()), "Month (1-12)")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		stats, err := a.Analysis.MonthlyStats(ctx, *year, *month)
		if err != nil {
			return err
		}
		return writeJSON(out, stats)

	case "savings":
		p := dateFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		opportunities, err := a.Savings.Opportunities(ctx, *p)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]interface{}{"count": len(opportunities), "opportunities": opportunities})

	case "personality":
		p := dateFlags(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		r, err := analysis.ResolveDateRange(*p)
		if err != nil {
			return err
		}
		return writeJSON(out, a.Personality.Analyze(ctx, r))

	case "rules":
		all := fs.Bool("all", false, "Include disabled rules")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		rules, err := a.RuleService.List(ctx, *all)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]interface{}{"rules": rules})

	default:
		return errors.Wrapf(errUsage, "unknown command %q", cmd)
	}
}

func dateFlags(fs *flag.FlagSet) *analysis.DateParams {
	p := &analysis.DateParams{}
	fs.IntVar(&p.Year, "year", 0, "Year")
	fs.IntVar(&p.Month, "month", 0, "Month (1-12)")
	fs.StringVar(&p.StartDate, "start", "", "Start date (YYYY-MM-DD)")
	fs.StringVar(&p.EndDate, "end", "", "End date (YYYY-MM-DD, inclusive)")
	return p
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
