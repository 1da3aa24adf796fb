// Package csvfile provides the row-oriented file adapter. It is the
// uncompressed baseline representation for efficiency analysis, with
// optional compression (gzip, snappy, lz4, zstd, s2) when a destination
// asks for it.
//
// CSV carries no embedded schema, so reads infer each column's type from the
// values themselves, widening as needed (int -> float -> string,
// date -> timestamp -> string).
package csvfile

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ballastio/ballast/pkg/adapter"
	"github.com/ballastio/ballast/pkg/compression"
	"github.com/ballastio/ballast/pkg/dataset"
	"github.com/ballastio/ballast/pkg/errors"
)

// FormatName is the registered adapter name
const FormatName = "csv"

// Adapter writes and reads datasets as CSV files
type Adapter struct {
	defaultCompression compression.Algorithm
}

// New creates a CSV file adapter. The "compression" option sets the default
// algorithm; individual destinations may override it.
func New(options map[string]string) (*Adapter, error) {
	alg, err := compression.ParseAlgorithm(options["compression"])
	if err != nil {
		return nil, err
	}
	return &Adapter{defaultCompression: alg}, nil
}

// Name returns the format name
func (a *Adapter) Name() string { return FormatName }

// countingWriter tracks bytes that reach the underlying file
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func (a *Adapter) algorithm(dest adapter.DestinationSpec) (compression.Algorithm, error) {
	if opt, ok := dest.Options["compression"]; ok {
		return compression.ParseAlgorithm(opt)
	}
	return a.defaultCompression, nil
}

// destPath resolves the physical file path for a destination. Compressed
// outputs carry the conventional extension (data.csv.gz and so on) unless the
// configured path already ends with it.
func destPath(dest adapter.DestinationSpec, alg compression.Algorithm) string {
	ext := compression.Extension(alg)
	if ext == "" || strings.HasSuffix(dest.Path, ext) {
		return dest.Path
	}
	return dest.Path + ext
}

// Write persists the dataset as a CSV file and returns the on-disk byte count
func (a *Adapter) Write(ctx context.Context, ds *dataset.Dataset, dest adapter.DestinationSpec) (int64, error) {
	if err := ds.Validate(); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "refusing to write invalid dataset")
	}

	alg, err := a.algorithm(dest)
	if err != nil {
		return 0, err
	}

	path := destPath(dest, alg)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to create output directory")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to create output file").
			WithDetail("path", path)
	}
	defer f.Close()

	counter := &countingWriter{w: f}
	cw, err := compression.NewWriter(counter, alg)
	if err != nil {
		return 0, err
	}

	w := csv.NewWriter(cw)
	schema := ds.Schema()

	if err := w.Write(schema.Names()); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to write header")
	}

	row := make([]string, ds.NumCols())
	for i := 0; i < ds.NumRows(); i++ {
		select {
		case <-ctx.Done():
			return 0, errors.Wrap(ctx.Err(), errors.ErrorTypeWrite, "write canceled")
		default:
		}

		for c := 0; c < ds.NumCols(); c++ {
			col := ds.ColumnAt(c)
			row[c] = dataset.Format(col.Type, col.Values[i])
		}
		if err := w.Write(row); err != nil {
			return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to write row").
				WithDetail("row", i)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to flush csv writer")
	}
	if err := cw.Close(); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to finalize compressed output")
	}
	if err := f.Sync(); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to sync output file")
	}

	return counter.n, nil
}

// Read loads a CSV file back into a dataset, inferring column types
func (a *Adapter) Read(ctx context.Context, dest adapter.DestinationSpec) (*dataset.Dataset, error) {
	alg, err := a.algorithm(dest)
	if err != nil {
		return nil, err
	}

	path := destPath(dest, alg)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to open file").
			WithDetail("path", path)
	}
	defer f.Close()

	cr, err := compression.NewReader(f, alg)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	r := csv.NewReader(cr)
	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to read header")
	}

	var raw [][]string
	for {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeReadback, "read canceled")
		default:
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to read row")
		}
		raw = append(raw, record)
	}

	fields := make([]dataset.Field, len(header))
	for c, name := range header {
		fields[c] = dataset.Field{Name: name, Type: inferColumnType(raw, c), Nullable: true}
	}

	name := filepath.Base(dest.Path)
	ds, err := dataset.New(name, fields)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "invalid header")
	}

	row := make([]interface{}, len(fields))
	for i, record := range raw {
		for c := range fields {
			v, err := dataset.Parse(fields[c].Type, record[c])
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to parse value").
					WithDetail("row", i).
					WithDetail("column", fields[c].Name)
			}
			row[c] = v
		}
		if err := ds.AppendRow(row...); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to append row")
		}
	}

	return ds, nil
}

// Size reports the on-disk byte size of the destination
func (a *Adapter) Size(_ context.Context, dest adapter.DestinationSpec) (int64, error) {
	alg, err := a.algorithm(dest)
	if err != nil {
		return 0, err
	}
	path := destPath(dest, alg)

	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeReadback, "failed to stat file").
			WithDetail("path", path)
	}
	return info.Size(), nil
}

// inferColumnType picks the narrowest type that fits every value in the
// column, widening within a category before falling back to string.
func inferColumnType(rows [][]string, col int) dataset.FieldType {
	current := dataset.FieldType("")

	for _, row := range rows {
		if col >= len(row) || row[col] == "" {
			continue
		}
		t := dataset.InferType(row[col])
		if current == "" || current == t {
			current = t
			continue
		}
		current = widen(current, t)
		if current == dataset.FieldTypeString {
			break
		}
	}

	if current == "" {
		return dataset.FieldTypeString
	}
	return current
}

func widen(a, b dataset.FieldType) dataset.FieldType {
	numeric := map[dataset.FieldType]bool{dataset.FieldTypeInt: true, dataset.FieldTypeFloat: true}
	temporal := map[dataset.FieldType]bool{dataset.FieldTypeDate: true, dataset.FieldTypeTimestamp: true}

	switch {
	case numeric[a] && numeric[b]:
		return dataset.FieldTypeFloat
	case temporal[a] && temporal[b]:
		return dataset.FieldTypeTimestamp
	default:
		return dataset.FieldTypeString
	}
}
