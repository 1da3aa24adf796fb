// Package efficiency computes storage efficiency figures across the
// persisted representations of one logical dataset. Ratios are raw byte
// counts relative to a declared baseline representation; no filesystem block
// overhead accounting is applied.
package efficiency

import (
	"go.uber.org/zap"

	"github.com/ballastio/ballast/pkg/errors"
)

// Entry holds the size and compression ratio for one representation
type Entry struct {
	SizeBytes int64   `json:"size_bytes"`
	Ratio     float64 `json:"ratio"`
}

// Record maps representation names to their efficiency figures.
// Created once per load run after all writes complete.
type Record struct {
	Baseline string           `json:"baseline"`
	Entries  map[string]Entry `json:"entries"`
}

// Analyzer computes compression ratios against a baseline representation
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates an efficiency analyzer
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

// Analyze computes ratio(format) = sizes[baseline] / sizes[format] for every
// representation. A missing baseline, or a zero or negative size for any
// representation, signals a division error; the verification report is
// unaffected by that failure, only the efficiency figures are invalidated.
func (a *Analyzer) Analyze(sizes map[string]int64, baseline string) (*Record, error) {
	baseSize, ok := sizes[baseline]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeDivision,
			"baseline representation %q absent from size mapping", baseline)
	}
	if baseSize <= 0 {
		return nil, errors.Newf(errors.ErrorTypeDivision,
			"baseline representation %q has size %d", baseline, baseSize).
			WithDetail("baseline", baseline)
	}

	record := &Record{
		Baseline: baseline,
		Entries:  make(map[string]Entry, len(sizes)),
	}

	for name, size := range sizes {
		if size <= 0 {
			return nil, errors.Newf(errors.ErrorTypeDivision,
				"representation %q has size %d", name, size).
				WithDetail("format", name)
		}
		record.Entries[name] = Entry{
			SizeBytes: size,
			Ratio:     float64(baseSize) / float64(size),
		}
	}

	a.logger.Info("storage efficiency analyzed",
		zap.String("baseline", baseline),
		zap.Int64("baseline_bytes", baseSize),
		zap.Int("representations", len(record.Entries)))

	return record, nil
}
