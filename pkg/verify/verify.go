// Package verify implements the cross-format consistency checks between a
// source dataset and a persisted copy read back through a format adapter.
// All checks run unconditionally and all findings are collected before the
// verdict is computed; a run passes only when no hard finding was recorded.
package verify

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ballastio/ballast/pkg/dataset"
	"github.com/ballastio/ballast/pkg/errors"
)

// Check identifies one of the consistency checks
type Check string

const (
	CheckCount       Check = "count"
	CheckSchema      Check = "schema"
	CheckColumnOrder Check = "column_order"
	CheckType        Check = "type"
	CheckContent     Check = "content"
	CheckReadback    Check = "readback"
)

// Severity classifies a finding. Hard findings fail the run; soft findings
// are surfaced for visibility but do not block success.
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// Verdict is the overall outcome of a verification
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

// Finding is a single verification observation
type Finding struct {
	Check    Check    `json:"check"`
	Severity Severity `json:"severity"`
	Column   string   `json:"column,omitempty"`
	Detail   string   `json:"detail"`
}

// ColumnTypeCheck records per-column type compatibility between source and target
type ColumnTypeCheck struct {
	Column     string            `json:"column"`
	SourceType dataset.FieldType `json:"source_type"`
	TargetType dataset.FieldType `json:"target_type"`
	Compatible bool              `json:"compatible"`
	Exact      bool              `json:"exact"`
}

// Result is the verification report entry for one (dataset, format) pair.
// It is never mutated after the run completes.
type Result struct {
	Dataset          string            `json:"dataset"`
	Format           string            `json:"format"`
	SourceRows       int               `json:"source_rows"`
	TargetRows       int               `json:"target_rows"`
	SchemaMatch      bool              `json:"schema_match"`
	ColumnTypes      []ColumnTypeCheck `json:"column_types"`
	SampleMismatches int               `json:"sample_mismatches"`
	SampledRows      int               `json:"sampled_rows"`
	Findings         []Finding         `json:"findings"`
	Verdict          Verdict           `json:"verdict"`
}

// HardFailed reports whether any hard finding was recorded
func (r *Result) HardFailed() bool {
	return r.Verdict == VerdictFail
}

// Err converts a failed result into a structured error carrying the kind of
// the first hard finding. Returns nil for passing results.
func (r *Result) Err() error {
	for _, f := range r.Findings {
		if f.Severity != SeverityHard {
			continue
		}
		err := errors.Newf(checkErrorType(f.Check), "%s/%s: %s", r.Dataset, r.Format, f.Detail)
		if f.Column != "" {
			err = err.WithDetail("column", f.Column)
		}
		return err
	}
	return nil
}

// checkErrorType maps a check to its verification failure error kind
func checkErrorType(c Check) errors.ErrorType {
	switch c {
	case CheckCount:
		return errors.ErrorTypeCountMismatch
	case CheckSchema:
		return errors.ErrorTypeSchemaMismatch
	case CheckType:
		return errors.ErrorTypeTypeMismatch
	case CheckContent:
		return errors.ErrorTypeContentMismatch
	case CheckReadback:
		return errors.ErrorTypeReadback
	default:
		return errors.ErrorTypeInternal
	}
}

func (r *Result) addFinding(check Check, severity Severity, column, detail string) {
	r.Findings = append(r.Findings, Finding{
		Check:    check,
		Severity: severity,
		Column:   column,
		Detail:   detail,
	})
}

// Config controls verification behavior
type Config struct {
	// SampleSize is N in the first-N / last-N / N-strided sampling scheme
	SampleSize int `yaml:"sample_size" json:"sample_size"`
	// FullScan compares every row instead of a bounded sample
	FullScan bool `yaml:"full_scan" json:"full_scan"`
}

// DefaultConfig returns the default verification configuration
func DefaultConfig() Config {
	return Config{SampleSize: 10}
}

// Verifier runs the consistency checks
type Verifier struct {
	cfg    Config
	logger *zap.Logger
}

// NewVerifier creates a verifier with the given configuration
func NewVerifier(cfg Config, logger *zap.Logger) *Verifier {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultConfig().SampleSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{cfg: cfg, logger: logger}
}

// Verify compares a persisted copy against its originating dataset and
// returns the aggregated result. No check short-circuits another.
func (v *Verifier) Verify(source, target *dataset.Dataset, formatName string) *Result {
	result := &Result{
		Dataset:    source.Name,
		Format:     formatName,
		SourceRows: source.NumRows(),
		TargetRows: target.NumRows(),
	}

	v.checkCount(source, target, result)
	shared := v.checkSchema(source, target, result)
	v.checkTypes(source, target, shared, result)
	v.checkContent(source, target, shared, result)

	result.Verdict = VerdictPass
	for _, f := range result.Findings {
		if f.Severity == SeverityHard {
			result.Verdict = VerdictFail
			break
		}
	}

	v.logger.Info("verification completed",
		zap.String("dataset", source.Name),
		zap.String("format", formatName),
		zap.String("verdict", string(result.Verdict)),
		zap.Int("findings", len(result.Findings)),
		zap.Int("sample_mismatches", result.SampleMismatches))

	return result
}

// checkCount verifies exact record count equality. Any mismatch is a hard
// failure: the load is incomplete if counts differ.
func (v *Verifier) checkCount(source, target *dataset.Dataset, result *Result) {
	if source.NumRows() != target.NumRows() {
		result.addFinding(CheckCount, SeverityHard, "",
			fmt.Sprintf("source has %d rows, target has %d", source.NumRows(), target.NumRows()))
	}
}

// checkSchema verifies column name set equality (hard) and column order
// (soft, since positional order is not guaranteed by every target format).
// It returns the shared column names in source order.
func (v *Verifier) checkSchema(source, target *dataset.Dataset, result *Result) []string {
	srcSchema := source.Schema()
	tgtSchema := target.Schema()
	srcSet := srcSchema.NameSet()
	tgtSet := tgtSchema.NameSet()

	var missing, extra []string
	for _, name := range srcSchema.Names() {
		if _, ok := tgtSet[name]; !ok {
			missing = append(missing, name)
		}
	}
	for _, name := range tgtSchema.Names() {
		if _, ok := srcSet[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	result.SchemaMatch = len(missing) == 0 && len(extra) == 0

	for _, name := range missing {
		result.addFinding(CheckSchema, SeverityHard, name, "column missing from target")
	}
	for _, name := range extra {
		result.addFinding(CheckSchema, SeverityHard, name, "column not present in source")
	}

	shared := make([]string, 0, len(srcSchema.Fields))
	for _, name := range srcSchema.Names() {
		if _, ok := tgtSet[name]; ok {
			shared = append(shared, name)
		}
	}

	if result.SchemaMatch {
		for i, name := range srcSchema.Names() {
			if tgtSchema.Fields[i].Name != name {
				result.addFinding(CheckColumnOrder, SeveritySoft, name,
					fmt.Sprintf("column order differs: source position %d holds %q in target", i, tgtSchema.Fields[i].Name))
				break
			}
		}
	}

	return shared
}

// checkTypes verifies per-column type compatibility. Compatible means same
// logical category (numeric, text, temporal, boolean); a category match with
// a different concrete type is a soft finding, a category mismatch is hard.
func (v *Verifier) checkTypes(source, target *dataset.Dataset, shared []string, result *Result) {
	for _, name := range shared {
		srcField, _ := source.Schema().Field(name)
		tgtField, _ := target.Schema().Field(name)

		check := ColumnTypeCheck{
			Column:     name,
			SourceType: srcField.Type,
			TargetType: tgtField.Type,
			Compatible: srcField.Type.Category() == tgtField.Type.Category(),
			Exact:      srcField.Type == tgtField.Type,
		}
		result.ColumnTypes = append(result.ColumnTypes, check)

		if !check.Compatible {
			result.addFinding(CheckType, SeverityHard, name,
				fmt.Sprintf("incompatible types: source %s, target %s", srcField.Type, tgtField.Type))
		} else if !check.Exact {
			result.addFinding(CheckType, SeveritySoft, name,
				fmt.Sprintf("type widened: source %s, target %s", srcField.Type, tgtField.Type))
		}
	}
}

// checkContent compares values at deterministically sampled row positions
// after type normalization. Any sampled mismatch is a hard failure. The
// bounded sample trades O(rows x cols) cost for a bounded false-negative
// risk on unsampled rows; FullScan removes the bound.
func (v *Verifier) checkContent(source, target *dataset.Dataset, shared []string, result *Result) {
	rows := source.NumRows()
	if target.NumRows() < rows {
		rows = target.NumRows()
	}
	if rows == 0 || len(shared) == 0 {
		return
	}

	var positions []int
	if v.cfg.FullScan {
		positions = make([]int, rows)
		for i := range positions {
			positions[i] = i
		}
	} else {
		positions = SamplePositions(rows, v.cfg.SampleSize)
	}
	result.SampledRows = len(positions)

	for _, row := range positions {
		for _, name := range shared {
			srcField, _ := source.Schema().Field(name)
			srcVal := source.Value(row, name)
			tgtVal := target.Value(row, name)

			if !dataset.Equal(srcField.Type, srcVal, tgtVal) {
				result.SampleMismatches++
				result.addFinding(CheckContent, SeverityHard, name,
					fmt.Sprintf("row %d: source %v, target %v", row,
						dataset.Format(srcField.Type, srcVal), dataset.Format(srcField.Type, tgtVal)))
			}
		}
	}
}
