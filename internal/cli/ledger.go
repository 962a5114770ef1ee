// internal/cli/ledger.go
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/export"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

func init() {
	register(Command{Name: "earn", Usage: "earn [-note text] <amount>", Flags: earnCmd})
	register(Command{Name: "list", Usage: "list [-limit N]", Flags: listCmd})
	register(Command{Name: "cumulative", Usage: "cumulative", Flags: cumulativeCmd})
	register(Command{Name: "import", Usage: "import [-yes] <file.csv>", Flags: importCmd})
	register(Command{Name: "export", Usage: "export [-format csv|json] [-out dir] [-from date] [-to date] [-source manual|import] [-timeline]", Flags: exportCmd})
	register(Command{Name: "serve", Usage: "serve [-listen addr]", Flags: serveCmd})
}

func earnCmd(fs *flag.FlagSet) runFunc {
	note := fs.String("note", "", "free-form note")
	return func(ctx context.Context, env *Env, args []string) error {
		if len(args) != 1 {
			return usageError(errors.New("usage: earn [-note text] <amount>"))
		}
		amount, err := decimal.NewFromString(args[0])
		if err != nil {
			return blockchain.ValidationError("appendEarning", fmt.Errorf("amount %q: %w", args[0], err))
		}
		entry, err := env.Obs.AppendEarning(ctx, amount, models.SourceManual, *note)
		if err != nil {
			return err
		}
		return env.print(entry)
	}
}

func listCmd(fs *flag.FlagSet) runFunc {
	limit := fs.Int("limit", 50, "number of most recent entries (0 = all)")
	return func(ctx context.Context, env *Env, _ []string) error {
		entries, err := env.Obs.ListEarnings(ctx, *limit)
		if err != nil {
			return err
		}
		if entries == nil {
			entries = []*models.Earning{}
		}
		return env.print(entries)
	}
}

func cumulativeCmd(_ *flag.FlagSet) runFunc {
	return func(ctx context.Context, env *Env, _ []string) error {
		points, err := env.Obs.CumulativeEarnings(ctx)
		if err != nil {
			return err
		}
		total := decimal.Zero
		if len(points) > 0 {
			total = points[len(points)-1].Total
		}
		return env.print(map[string]any{"total": total, "points": points})
	}
}

// importCmd готовит импорт, показывает его и записывает только после подтверждения.
func importCmd(fs *flag.FlagSet) runFunc {
	yes := fs.Bool("yes", false, "confirm without prompting")
	return func(ctx context.Context, env *Env, args []string) error {
		if len(args) != 1 {
			return usageError(errors.New("usage: import [-yes] <file.csv>"))
		}
		f, err := os.Open(args[0])
		if err != nil {
			return blockchain.ValidationError("importCSV", err)
		}
		defer f.Close()

		staged, err := env.Ledger.ImportCSV(f)
		if err != nil {
			return err
		}
		if err := env.print(staged); err != nil {
			return err
		}

		if !*yes && !env.confirm(fmt.Sprintf("Import %d entries totaling %s from column %q? [y/N]: ",
			len(staged.Amounts), staged.Total.String(), staged.Column)) {
			env.Logger.Info("Import discarded", zap.String("id", staged.ID))
			return env.Ledger.DiscardImport(staged.ID)
		}

		written, err := env.Ledger.ConfirmImport(ctx, staged.ID)
		if err != nil {
			return err
		}
		return env.print(map[string]any{"id": staged.ID, "written": len(written)})
	}
}

func (e *Env) confirm(prompt string) bool {
	if e.In == nil {
		return false
	}
	fmt.Fprint(e.Out, prompt)
	line, err := bufio.NewReader(e.In).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func exportCmd(fs *flag.FlagSet) runFunc {
	format := fs.String("format", string(export.FormatCSV), "csv or json")
	out := fs.String("out", "exports", "output directory")
	from := fs.String("from", "", "start date (2006-01-02 or RFC3339)")
	to := fs.String("to", "", "end date (2006-01-02 or RFC3339)")
	source := fs.String("source", "", "manual or import (empty = both)")
	timeline := fs.Bool("timeline", false, "also export the cumulative timeline")
	return func(ctx context.Context, env *Env, _ []string) error {
		opts := export.ExportOptions{
			Format:       export.ExportFormat(*format),
			SourceFilter: models.Source(*source),
			OutputDir:    *out,
		}
		if opts.Format != export.FormatCSV && opts.Format != export.FormatJSON {
			return usageError(fmt.Errorf("unknown format %q", *format))
		}
		if opts.SourceFilter != "" && !opts.SourceFilter.Valid() {
			return usageError(fmt.Errorf("unknown source %q", *source))
		}
		var err error
		if opts.StartTime, err = parseDate(*from); err != nil {
			return err
		}
		if opts.EndTime, err = parseDate(*to); err != nil {
			return err
		}

		entries, err := env.Obs.ListEarnings(ctx, 0)
		if err != nil {
			return err
		}
		files := map[string]string{}
		if files["earnings"], err = env.Exporter.ExportEarnings(entries, opts); err != nil {
			return err
		}
		if *timeline {
			points, err := env.Obs.CumulativeEarnings(ctx)
			if err != nil {
				return err
			}
			if files["timeline"], err = env.Exporter.ExportTimeline(points, opts); err != nil {
				return err
			}
		}
		return env.print(files)
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, usageError(fmt.Errorf("invalid date %q", s))
}

func serveCmd(fs *flag.FlagSet) runFunc {
	listen := fs.String("listen", "", "listen address (empty = api.listen from config)")
	return func(ctx context.Context, env *Env, _ []string) error {
		addr := *listen
		if addr == "" {
			addr = env.Config.API.Listen
		}
		if env.Serve == nil {
			return errors.New("serve is not available")
		}
		return env.Serve(ctx, addr)
	}
}
