// Package parquet provides the columnar compressed file adapter built on
// Apache Arrow. Datasets are written as a single Parquet file with
// column-level compression and read back through the pqarrow bridge.
package parquet

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ballastio/ballast/pkg/adapter"
	"github.com/ballastio/ballast/pkg/dataset"
	"github.com/ballastio/ballast/pkg/errors"
)

// FormatName is the registered adapter name
const FormatName = "parquet"

const defaultBatchSize = 10000

// Adapter writes and reads datasets as Parquet files
type Adapter struct {
	compression compress.Compression
	batchSize   int
}

// New creates a Parquet adapter. Supported options: "compression"
// (snappy, zstd, gzip, none; default snappy) and "batch_size".
func New(options map[string]string) (*Adapter, error) {
	codec, err := parseCompression(options["compression"])
	if err != nil {
		return nil, err
	}
	return &Adapter{compression: codec, batchSize: defaultBatchSize}, nil
}

// Name returns the format name
func (a *Adapter) Name() string { return FormatName }

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// Write persists the dataset as a Parquet file and returns the byte count
func (a *Adapter) Write(ctx context.Context, ds *dataset.Dataset, dest adapter.DestinationSpec) (int64, error) {
	if err := ds.Validate(); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "refusing to write invalid dataset")
	}

	arrowSchema, err := toArrowSchema(ds.Schema())
	if err != nil {
		return 0, err
	}

	if dir := filepath.Dir(dest.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to create output directory")
		}
	}

	f, err := os.Create(dest.Path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to create output file").
			WithDetail("path", dest.Path)
	}
	defer f.Close()

	counter := &countingWriter{w: f}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(a.compression),
		parquet.WithDictionaryDefault(true),
	)
	alloc := memory.NewGoAllocator()
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(alloc))

	fw, err := pqarrow.NewFileWriter(arrowSchema, counter, props, arrowProps)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to create parquet writer")
	}

	builder := array.NewRecordBuilder(alloc, arrowSchema)
	defer builder.Release()

	pending := 0
	flush := func() error {
		if pending == 0 {
			return nil
		}
		rec := builder.NewRecord()
		defer rec.Release()
		if err := fw.WriteBuffered(rec); err != nil {
			return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write record batch")
		}
		pending = 0
		return nil
	}

	for i := 0; i < ds.NumRows(); i++ {
		select {
		case <-ctx.Done():
			return 0, errors.Wrap(ctx.Err(), errors.ErrorTypeWrite, "write canceled")
		default:
		}

		for c := 0; c < ds.NumCols(); c++ {
			col := ds.ColumnAt(c)
			if err := appendValue(builder.Field(c), col.Type, col.Values[i]); err != nil {
				return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to append value").
					WithDetail("row", i).
					WithDetail("column", col.Name)
			}
		}

		pending++
		if pending >= a.batchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}

	if err := flush(); err != nil {
		return 0, err
	}
	if err := fw.Close(); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to close parquet writer")
	}
	if err := f.Sync(); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to sync output file")
	}

	return counter.n, nil
}

// Read loads a Parquet file back into a dataset
func (a *Adapter) Read(ctx context.Context, dest adapter.DestinationSpec) (*dataset.Dataset, error) {
	f, err := os.Open(dest.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to open file").
			WithDetail("path", dest.Path)
	}
	defer f.Close()

	fr, err := file.NewParquetReader(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to open parquet reader")
	}
	defer fr.Close()

	arrowReader, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{BatchSize: int64(a.batchSize)}, memory.NewGoAllocator())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to create arrow reader")
	}

	arrowSchema, err := arrowReader.Schema()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to read schema")
	}

	name := filepath.Base(dest.Path)
	ds, err := dataset.New(name, fromArrowSchema(arrowSchema))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "invalid parquet schema")
	}

	rr, err := arrowReader.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to create record reader")
	}
	defer rr.Release()

	for rr.Next() {
		rec := rr.Record()
		for row := 0; row < int(rec.NumRows()); row++ {
			values := make([]interface{}, rec.NumCols())
			for c := 0; c < int(rec.NumCols()); c++ {
				values[c] = columnValue(rec.Column(c), row)
			}
			if err := ds.AppendRow(values...); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to append row")
			}
		}
	}
	if err := rr.Err(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, errors.ErrorTypeReadback, "failed to read record batches")
	}

	return ds, nil
}

// Size reports the on-disk byte size of the destination
func (a *Adapter) Size(_ context.Context, dest adapter.DestinationSpec) (int64, error) {
	info, err := os.Stat(dest.Path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeReadback, "failed to stat file").
			WithDetail("path", dest.Path)
	}
	return info.Size(), nil
}

// columnValue extracts a Go value from an arrow column at the given row
func columnValue(col arrow.Array, row int) interface{} {
	if col.IsNull(row) {
		return nil
	}

	switch c := col.(type) {
	case *array.Boolean:
		return c.Value(row)
	case *array.Int64:
		return c.Value(row)
	case *array.Float64:
		return c.Value(row)
	case *array.String:
		return c.Value(row)
	case *array.Timestamp:
		// The unit is taken from the column type: files written elsewhere
		// may carry second/milli/microsecond timestamps.
		unit := c.DataType().(*arrow.TimestampType).Unit
		return c.Value(row).ToTime(unit).UTC()
	case *array.Date32:
		return c.Value(row).ToTime()
	default:
		return nil
	}
}

func parseCompression(name string) (compress.Compression, error) {
	switch name {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "none":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed,
			errors.Newf(errors.ErrorTypeConfig, "unsupported parquet compression %q", name)
	}
}
