package analysis

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/archivist/internal/oracle"
	"github.com/discochess/archivist/internal/stats"
)

// evaluate runs plies through the worker pool and returns their rows in
// ply order. Plies not started before ctx is done carry ctx's error.
func (e *Engine) evaluate(ctx context.Context, plies []ply, moves []string) []Row {
	rows := make([]Row, len(plies))
	started := make([]bool, len(plies))
	if len(plies) == 0 {
		return rows
	}

	jobs := make(chan int)
	var done atomic.Int64

	var g errgroup.Group
	for range min(e.workers, len(plies)) {
		g.Go(func() error {
			w := &worker{engine: e}
			defer w.discard()
			for i := range jobs {
				rows[i] = w.run(ctx, plies[i], moves)
				if e.progress != nil {
					e.progress(int(done.Add(1)), len(plies))
				}
			}
			return nil
		})
	}

feed:
	for i := range plies {
		select {
		case jobs <- i:
			started[i] = true
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	_ = g.Wait()

	for i, ok := range started {
		if !ok {
			rows[i] = plies[i].row
			rows[i].Err = ctx.Err().Error()
		}
	}
	return rows
}

// worker owns one evaluator at a time. After any failure the evaluator is
// closed and a fresh one is created for the next ply.
type worker struct {
	engine *Engine
	ev     oracle.Evaluator
}

func (w *worker) run(ctx context.Context, p ply, moves []string) Row {
	e := w.engine
	start := time.Now()
	row := p.row
	err := w.evaluatePly(ctx, &row, p, moves)
	e.collector.ObserveHistogram(stats.MetricOracleCallSeconds, time.Since(start).Seconds())

	if err != nil {
		e.collector.IncCounter(stats.MetricPlyFailures, 1)
		e.logger.Warn("ply evaluation failed",
			zap.Int("ply", p.row.Ply),
			zap.String("move", p.row.Move),
			zap.Error(err),
		)
		w.discard()
		row = p.row
		row.Err = err.Error()
		return row
	}
	e.collector.IncCounter(stats.MetricPliesEvaluated, 1)
	return row
}

func (w *worker) evaluatePly(ctx context.Context, row *Row, p ply, moves []string) error {
	e := w.engine
	if w.ev == nil {
		ev, err := e.factory(ctx)
		if err != nil {
			return fmt.Errorf("starting evaluator: %w", err)
		}
		w.ev = ev
	}

	n := p.row.Ply
	var top []oracle.Candidate
	err := w.call(ctx, func(ctx context.Context) error {
		if err := w.ev.SetPosition(ctx, moves[:n]); err != nil {
			return err
		}
		var err error
		top, err = w.ev.TopMoves(ctx, e.topK)
		return err
	})
	if err != nil {
		return err
	}

	var moveEval *float64
	switch r := rankOf(top, row.MoveUCI); {
	case r >= 0:
		moveEval = Normalize(top[r].Score, e.fill)
	case p.terminal != nil:
		v := *p.terminal
		moveEval = &v
	default:
		var s oracle.Score
		err := w.call(ctx, func(ctx context.Context) error {
			if err := w.ev.SetPosition(ctx, moves[:n+1]); err != nil {
				return err
			}
			var err error
			s, err = w.ev.Evaluate(ctx)
			return err
		})
		if err != nil {
			return err
		}
		moveEval = Normalize(s, e.fill)
	}

	derive(row, top, moveEval, e.fill)
	return nil
}

// call runs fn under the per-call timeout.
func (w *worker) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, w.engine.timeout)
	defer cancel()
	return fn(ctx)
}

func (w *worker) discard() {
	if w.ev == nil {
		return
	}
	if err := w.ev.Close(); err != nil {
		w.engine.logger.Debug("closing evaluator", zap.Error(err))
	}
	w.ev = nil
}

func rankOf(top []oracle.Candidate, move string) int {
	for i, c := range top {
		if c.Move == move {
			return i
		}
	}
	return -1
}
