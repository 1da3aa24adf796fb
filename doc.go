// Package ballast provides the terminal load stage of a tabular data
// pipeline: it persists transformed datasets into a row-oriented baseline
// (CSV), a columnar compressed format (Parquet) and a relational store
// (PostgreSQL), then proves the copies are faithful before the run is
// allowed to succeed.
//
// Every written copy is read back through its own adapter and verified
// against the originating in-memory dataset:
//
//   - record counts must match exactly
//   - the column name sets must be identical (order differences are
//     reported but tolerated)
//   - column types must be compatible within their logical category
//     (numeric, text, temporal, boolean)
//   - values at deterministically sampled row positions must be equal
//     after type normalization
//
// A read-back error is itself a hard verification failure rather than a
// crash, so a complete run report is produced for every outcome. After
// verification, byte sizes of all representations are compared against a
// configured baseline to yield compression ratios.
//
// # Quick Start
//
// Run a verified load from the command line:
//
//	ballast run --config load.yaml --full full.csv --incremental incremental.csv
//
// Or drive it as a library:
//
//	cfg := config.NewLoadConfig("nightly")
//	cfg.Destinations = []adapter.DestinationSpec{
//	    {Format: "csv", Path: "out/users.csv"},
//	    {Format: "parquet", Path: "out/users.parquet"},
//	}
//
//	orch, err := loader.New(cfg, adapters, logger.Get())
//	report := orch.Run(ctx, jobs)
//
// # Package Layout
//
//   - pkg/dataset: the in-memory tabular model and value conversions
//   - pkg/adapter: the format adapter boundary and registry, with csvfile,
//     parquet, postgres and memory implementations
//   - pkg/verify: the cross-format consistency checks
//   - pkg/efficiency: storage efficiency analysis
//   - internal/loader: the load orchestrator and run report
//
// See examples/ for a complete runnable example.
package ballast
