// Package loader implements the load orchestrator: it sequences adapter
// writes, reads every written copy back through its adapter, runs the
// consistency verifier against the originating dataset, measures storage
// efficiency, and aggregates everything into a run report.
//
// The run moves through explicit states (initialized, writing, verifying,
// analyzing, completed/failed) so partial failure is observable rather than
// a silent mid-script stop. A write failure aborts remaining writes; a
// verification hard failure does not abort the run but marks it failed.
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ballastio/ballast/pkg/adapter"
	"github.com/ballastio/ballast/pkg/config"
	"github.com/ballastio/ballast/pkg/dataset"
	"github.com/ballastio/ballast/pkg/efficiency"
	"github.com/ballastio/ballast/pkg/errors"
	"github.com/ballastio/ballast/pkg/metrics"
	"github.com/ballastio/ballast/pkg/verify"
)

// Job pairs one dataset with the destinations it must be persisted to
type Job struct {
	Dataset      *dataset.Dataset
	Destinations []adapter.DestinationSpec
}

// writtenCopy tracks one successful adapter write pending verification
type writtenCopy struct {
	ds      *dataset.Dataset
	spec    adapter.DestinationSpec
	adapter adapter.Adapter
	bytes   int64
}

// Orchestrator owns the lifecycle of a load run and of the report it
// produces. Each run's datasets and report are exclusive to that run.
type Orchestrator struct {
	cfg      *config.LoadConfig
	adapters map[string]adapter.Adapter
	verifier *verify.Verifier
	analyzer *efficiency.Analyzer
	logger   *zap.Logger

	mu    sync.Mutex
	state State
}

// New creates an orchestrator with explicit configuration and adapters,
// replacing the ambient globals of script-style loads.
func New(cfg *config.LoadConfig, adapters map[string]adapter.Adapter, logger *zap.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "config is required")
	}
	if len(adapters) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "at least one adapter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		cfg:      cfg,
		adapters: adapters,
		verifier: verify.NewVerifier(cfg.Verification, logger),
		analyzer: efficiency.NewAnalyzer(logger),
		logger:   logger,
		state:    StateInitialized,
	}, nil
}

// State returns the orchestrator's current state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.logger.Debug("state transition", zap.String("state", string(s)))
}

// Run executes one load: write all copies, verify each against its source,
// analyze storage efficiency. A full report is returned regardless of
// outcome; the error inside the report is authoritative.
func (o *Orchestrator) Run(ctx context.Context, jobs []Job) *RunReport {
	timer := metrics.NewTimer()
	report := &RunReport{
		RunID:     uuid.NewString(),
		Name:      o.cfg.Name,
		State:     StateInitialized,
		StartedAt: time.Now().UTC(),
	}
	log := o.logger.With(zap.String("run_id", report.RunID))

	finish := func(state State) *RunReport {
		o.setState(state)
		report.State = state
		report.CompletedAt = time.Now().UTC()
		if o.cfg.Metrics.Enabled {
			metrics.RunsTotal.WithLabelValues(string(state)).Inc()
			timer.ObserveRun()
		}
		log.Info("load run finished",
			zap.String("state", string(state)),
			zap.Duration("duration", report.CompletedAt.Sub(report.StartedAt)))
		return report
	}

	fail := func(err error) *RunReport {
		report.Error = err.Error()
		if errors.IsVerificationFailure(err) {
			log.Error("verification failed", zap.Error(err))
		} else {
			log.Error("load failed", zap.Error(err))
		}
		return finish(StateFailed)
	}

	// Writing
	o.setState(StateWriting)
	written, writeErr := o.writeAll(ctx, jobs, report, log)
	if writeErr != nil {
		return fail(writeErr)
	}

	// Verifying: hard failures are recorded but do not abort the run, so a
	// complete report is always produced.
	o.setState(StateVerifying)
	verifyErr := o.verifyAll(ctx, written, report, log)

	// Analyzing
	o.setState(StateAnalyzing)
	o.analyzeAll(ctx, written, report, log)

	if verifyErr != nil {
		return fail(verifyErr)
	}
	return finish(StateCompleted)
}

// writeAll persists every (dataset, destination) pair. The first write
// failure aborts all remaining writes: partial writes are unsafe to leave
// silently incomplete, and retrying a failed run in its entirety is the
// caller's responsibility.
func (o *Orchestrator) writeAll(ctx context.Context, jobs []Job, report *RunReport, log *zap.Logger) ([]writtenCopy, error) {
	type task struct {
		ds   *dataset.Dataset
		spec adapter.DestinationSpec
	}

	var tasks []task
	for _, job := range jobs {
		for _, spec := range job.Destinations {
			tasks = append(tasks, task{ds: job.Dataset, spec: spec})
		}
	}

	written := make([]writtenCopy, len(tasks))
	results := make([]WriteResult, len(tasks))
	errs := make([]error, len(tasks))
	attempted := make([]bool, len(tasks))

	runTask := func(ctx context.Context, i int) {
		t := tasks[i]
		attempted[i] = true
		results[i] = WriteResult{
			Dataset:     t.ds.Name,
			Format:      t.spec.Format,
			Destination: t.spec.Identity(),
		}

		ad, ok := o.adapters[t.spec.Format]
		if !ok {
			errs[i] = errors.Newf(errors.ErrorTypeConfig, "no adapter for format %q", t.spec.Format)
			results[i].Error = errs[i].Error()
			return
		}

		bytes, err := ad.Write(ctx, t.ds, t.spec)
		if err != nil {
			errs[i] = errors.Wrap(err, errors.ErrorTypeWrite, "write failed").
				WithDetail("dataset", t.ds.Name).
				WithDetail("format", t.spec.Format)
			results[i].Error = errs[i].Error()
			log.Error("write failed",
				zap.String("dataset", t.ds.Name),
				zap.String("format", t.spec.Format),
				zap.Error(err))
			return
		}

		results[i].Bytes = bytes
		written[i] = writtenCopy{ds: t.ds, spec: t.spec, adapter: ad, bytes: bytes}
		if o.cfg.Metrics.Enabled {
			metrics.BytesWritten.WithLabelValues(t.spec.Format).Add(float64(bytes))
			metrics.RowsLoaded.WithLabelValues(t.spec.Format).Add(float64(t.ds.NumRows()))
		}
		log.Info("copy written",
			zap.String("dataset", t.ds.Name),
			zap.String("format", t.spec.Format),
			zap.String("destination", t.spec.Identity()),
			zap.Int64("bytes", bytes),
			zap.Int("rows", t.ds.NumRows()))
	}

	if o.cfg.Parallel {
		// Independent destinations may be written concurrently; writes to
		// the same destination are serialized by a per-identity lock.
		writeCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		locks := make(map[string]*sync.Mutex)
		for _, t := range tasks {
			if _, ok := locks[t.spec.Identity()]; !ok {
				locks[t.spec.Identity()] = &sync.Mutex{}
			}
		}

		var wg sync.WaitGroup
		for i := range tasks {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				lock := locks[tasks[i].spec.Identity()]
				lock.Lock()
				defer lock.Unlock()

				if writeCtx.Err() != nil {
					return
				}
				runTask(writeCtx, i)
				if errs[i] != nil {
					cancel()
				}
			}(i)
		}
		wg.Wait()
	} else {
		for i := range tasks {
			runTask(ctx, i)
			if errs[i] != nil {
				break
			}
		}
	}

	// No report entry exists for destinations that were never attempted;
	// attempted writes keep their entries, failed or not.
	var firstErr error
	var completed []writtenCopy
	for i := range tasks {
		if !attempted[i] {
			continue
		}
		report.Writes = append(report.Writes, results[i])
		if errs[i] != nil && firstErr == nil {
			firstErr = errs[i]
		}
		if errs[i] == nil {
			completed = append(completed, written[i])
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return completed, nil
}

// verifyAll reads each written copy back and verifies it against its
// originating dataset. A read-back failure is a hard verification failure,
// not a crash. Returns the error of the first hard-failed verification.
func (o *Orchestrator) verifyAll(ctx context.Context, written []writtenCopy, report *RunReport, log *zap.Logger) error {
	var firstErr error

	for _, w := range written {
		copyBack, err := w.adapter.Read(ctx, w.spec)
		var result *verify.Result
		if err != nil {
			result = &verify.Result{
				Dataset:    w.ds.Name,
				Format:     w.spec.Format,
				SourceRows: w.ds.NumRows(),
				Findings: []verify.Finding{{
					Check:    verify.CheckReadback,
					Severity: verify.SeverityHard,
					Detail:   fmt.Sprintf("read-back failed: %v", err),
				}},
				Verdict: verify.VerdictFail,
			}
			log.Error("read-back failed",
				zap.String("dataset", w.ds.Name),
				zap.String("format", w.spec.Format),
				zap.Error(err))
		} else {
			result = o.verifier.Verify(w.ds, copyBack, w.spec.Format)
		}

		if o.cfg.Metrics.Enabled {
			for _, f := range result.Findings {
				metrics.VerificationFindings.WithLabelValues(
					string(f.Check), string(f.Severity), w.spec.Format).Inc()
			}
		}

		report.Verifications = append(report.Verifications, result)
		if err := result.Err(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// analyzeAll collects byte sizes per format and computes compression ratios
// against the configured baseline. A division error invalidates only the
// efficiency figures, never the verification report.
func (o *Orchestrator) analyzeAll(ctx context.Context, written []writtenCopy, report *RunReport, log *zap.Logger) {
	sizes := make(map[string]int64)
	for _, w := range written {
		size, err := w.adapter.Size(ctx, w.spec)
		if err != nil {
			// Fall back to the byte count reported at write time
			size = w.bytes
			log.Warn("size lookup failed, using write-time byte count",
				zap.String("format", w.spec.Format),
				zap.Error(err))
		}
		sizes[w.spec.Format] += size
	}

	record, err := o.analyzer.Analyze(sizes, o.cfg.BaselineFormat)
	if err != nil {
		report.EfficiencyError = err.Error()
		log.Warn("efficiency analysis failed", zap.Error(err))
		return
	}

	report.Efficiency = record
	if o.cfg.Metrics.Enabled {
		for format, entry := range record.Entries {
			metrics.CompressionRatio.WithLabelValues(format).Set(entry.Ratio)
		}
	}
}
