// Package reconcile applies the classification engine across a batch of
// messages and derives transactions and summaries from the results.
package reconcile

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/the-sms-must-flow/internal/classification"
	"github.com/Veraticus/the-sms-must-flow/internal/model"
)

// Options configures batch classification behavior.
type Options struct {
	// Progress, when set, is called once per processed message from worker
	// goroutines and must be safe for concurrent use.
	Progress   func()
	Workers    int  // Number of parallel workers
	Heuristics bool // Accept unmatched bank messages that pass the keyword gate
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Workers:    runtime.NumCPU(),
		Heuristics: true,
	}
}

// Summary contains statistics about a batch run.
type Summary struct {
	Total          int
	Emitted        int
	Heuristic      int
	Rejected       int
	Unmatched      int
	ProcessingTime time.Duration
}

// Batch is the outcome of classifying a batch of messages.
type Batch struct {
	Transactions []model.Transaction
	Summary      Summary
}

// Reconciler classifies message batches. It is safe for concurrent use.
type Reconciler struct {
	engine  *classification.Engine
	deriver *Deriver
	opts    Options
}

// New creates a reconciler.
func New(engine *classification.Engine, deriver *Deriver, opts Options) *Reconciler {
	if deriver == nil {
		deriver = NewDeriver(nil, nil)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Reconciler{
		engine:  engine,
		deriver: deriver,
		opts:    opts,
	}
}

type slot struct {
	txn     model.Transaction
	outcome classification.Outcome
	ok      bool
	guessed bool
}

// ClassifyOne classifies a single message and derives its transaction.
func (r *Reconciler) ClassifyOne(ctx context.Context, msg model.Message) (model.Transaction, bool) {
	s := r.classify(ctx, msg)
	return s.txn, s.ok
}

func (r *Reconciler) classify(ctx context.Context, msg model.Message) slot {
	decision := r.engine.Classify(ctx, msg)
	switch decision.Outcome {
	case classification.Emitted:
		return slot{
			txn:     r.deriver.Transaction(msg, decision.Result),
			outcome: decision.Outcome,
			ok:      true,
		}
	case classification.NoMatch:
		if r.opts.Heuristics {
			if txn, ok := r.deriver.Heuristic(msg); ok {
				return slot{txn: txn, outcome: decision.Outcome, ok: true, guessed: true}
			}
		}
	}
	return slot{outcome: decision.Outcome}
}

// ClassifyAll classifies msgs in parallel and returns the transactions in
// input order. Messages that are rejected or unmatched are dropped. The only
// error is the context's.
func (r *Reconciler) ClassifyAll(ctx context.Context, msgs []model.Message) ([]model.Transaction, error) {
	batch, err := r.Run(ctx, msgs)
	if err != nil {
		return nil, err
	}
	return batch.Transactions, nil
}

// Run is ClassifyAll with statistics.
func (r *Reconciler) Run(ctx context.Context, msgs []model.Message) (*Batch, error) {
	start := time.Now()
	slots := make([]slot, len(msgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i := range msgs {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = r.classify(gctx, msgs[i])
			if r.opts.Progress != nil {
				r.opts.Progress()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &Batch{
		Transactions: make([]model.Transaction, 0, len(msgs)),
		Summary:      Summary{Total: len(msgs)},
	}
	for _, s := range slots {
		switch {
		case s.ok && s.guessed:
			batch.Summary.Heuristic++
		case s.ok:
			batch.Summary.Emitted++
		case s.outcome == classification.Rejected:
			batch.Summary.Rejected++
		default:
			batch.Summary.Unmatched++
		}
		if s.ok {
			batch.Transactions = append(batch.Transactions, s.txn)
		}
	}
	batch.Summary.ProcessingTime = time.Since(start)

	slog.Debug("Batch classification complete",
		"total", batch.Summary.Total,
		"emitted", batch.Summary.Emitted,
		"heuristic", batch.Summary.Heuristic,
		"rejected", batch.Summary.Rejected,
		"unmatched", batch.Summary.Unmatched,
		"duration", batch.Summary.ProcessingTime)

	return batch, nil
}
