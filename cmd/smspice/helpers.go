package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-sms-must-flow/internal/bank"
	"github.com/Veraticus/the-sms-must-flow/internal/blacklist"
	"github.com/Veraticus/the-sms-must-flow/internal/classification"
	"github.com/Veraticus/the-sms-must-flow/internal/cli"
	"github.com/Veraticus/the-sms-must-flow/internal/common"
	"github.com/Veraticus/the-sms-must-flow/internal/config"
	"github.com/Veraticus/the-sms-must-flow/internal/model"
	"github.com/Veraticus/the-sms-must-flow/internal/reconcile"
	"github.com/Veraticus/the-sms-must-flow/internal/ruleset"
	"github.com/Veraticus/the-sms-must-flow/internal/storage"
)

const dateFlagLayout = "2006-01-02"

// initStorage opens the inbox and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadRuleset reads the configured ruleset file, or the built-in rules when
// none is configured.
func loadRuleset(cfg *config.Config) (*ruleset.Ruleset, error) {
	if cfg.RulesPath == "" {
		slog.Debug("Using built-in ruleset")
		return classification.DefaultRuleset()
	}

	rs, err := ruleset.LoadFile(cfg.RulesPath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not load rules from %s", cfg.RulesPath), err)
	}
	total, usable := rs.PatternCount()
	slog.Debug("Loaded ruleset",
		"path", cfg.RulesPath,
		"rules", rs.Len(),
		"patterns", total,
		"usable", usable)
	return rs, nil
}

// pipeline bundles everything needed to turn messages into transactions.
type pipeline struct {
	engine     *classification.Engine
	deriver    *reconcile.Deriver
	reconciler *reconcile.Reconciler
}

func newPipeline(cfg *config.Config, progress func()) (*pipeline, error) {
	rs, err := loadRuleset(cfg)
	if err != nil {
		return nil, err
	}

	engine := classification.NewEngine(rs, blacklist.Default(cfg.BlacklistTerms...))
	deriver := reconcile.NewDeriver(bank.NewDirectory(cfg.Banks), cfg.Location)

	opts := reconcile.DefaultOptions()
	opts.Workers = cfg.Workers
	opts.Heuristics = cfg.Heuristics
	opts.Progress = progress

	return &pipeline{
		engine:     engine,
		deriver:    deriver,
		reconciler: reconcile.New(engine, deriver, opts),
	}, nil
}

// filterFlags holds the presentation filter shared by sync, export and browse.
type filterFlags struct {
	from string
	to   string
	bank string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "only transactions on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "only transactions on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.bank, "bank", "", "only transactions from this bank name")
}

func (f *filterFlags) filter(loc *time.Location) (reconcile.Filter, error) {
	var out reconcile.Filter
	var err error

	if out.From, err = parseDateFlag("from", f.from, loc); err != nil {
		return out, err
	}
	if out.To, err = parseDateFlag("to", f.to, loc); err != nil {
		return out, err
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.To.Before(out.From) {
		return out, common.NewUserError("--to must not be before --from", nil)
	}
	out.Bank = strings.TrimSpace(f.bank)
	return out, nil
}

func parseDateFlag(name, value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateFlagLayout, value, loc)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid --%s date %q, expected YYYY-MM-DD", name, value), err)
	}
	return t, nil
}

// classifyInbox loads the stored messages selected by mf and runs the batch
// reconciler. showProgress draws a progress bar on w.
func classifyInbox(ctx context.Context, cfg *config.Config, mf storage.MessageFilter, w io.Writer, showProgress bool) (*reconcile.Batch, error) {
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	raws, err := store.ListMessages(ctx, mf)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	if len(raws) == 0 {
		return &reconcile.Batch{}, nil
	}

	msgs := make([]model.Message, len(raws))
	for i, raw := range raws {
		msgs[i] = raw.Message()
	}

	var progress func()
	if showProgress {
		progress = cli.Tick(cli.NewProgressBar(w, len(msgs), "Classifying messages..."))
	}

	p, err := newPipeline(cfg, progress)
	if err != nil {
		return nil, err
	}

	batch, err := p.reconciler.Run(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("classification stopped: %w", err)
	}

	slog.Info("Classified inbox",
		"messages", batch.Summary.Total,
		"transactions", len(batch.Transactions),
		"rejected", batch.Summary.Rejected,
		"duration", batch.Summary.ProcessingTime)

	return batch, nil
}

// expandFiles resolves glob patterns to existing files.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				matches = []string{pattern}
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	if len(files) == 0 {
		return nil, common.NewUserError("no files found to import", nil)
	}
	return files, nil
}
