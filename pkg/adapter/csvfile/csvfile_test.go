package csvfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ballastio/ballast/pkg/adapter"
	"github.com/ballastio/ballast/pkg/compression"
	"github.com/ballastio/ballast/pkg/dataset"
	"github.com/ballastio/ballast/pkg/errors"
	"github.com/ballastio/ballast/pkg/testutil"
)

func TestWriteReadRoundTrip(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	a, err := New(nil)
	require.NoError(t, err)

	ds := testutil.SampleDataset(t, "users", 100)
	dest := adapter.DestinationSpec{
		Format: FormatName,
		Path:   filepath.Join(t.TempDir(), "users.csv"),
	}

	written, err := a.Write(ctx, ds, dest)
	require.NoError(t, err)
	assert.Positive(t, written)

	size, err := a.Size(ctx, dest)
	require.NoError(t, err)
	assert.Equal(t, written, size)

	back, err := a.Read(ctx, dest)
	require.NoError(t, err)

	assert.Equal(t, ds.NumRows(), back.NumRows())
	assert.Equal(t, ds.Schema().Names(), back.Schema().Names())

	// Inferred types stay within the source categories
	for _, f := range ds.Schema().Fields {
		got, ok := back.Schema().Field(f.Name)
		require.True(t, ok)
		assert.Equal(t, f.Type.Category(), got.Type.Category(), "column %s", f.Name)
	}

	// Values survive the trip under normalized comparison
	for i := 0; i < ds.NumRows(); i++ {
		for _, f := range ds.Schema().Fields {
			assert.True(t, dataset.Equal(f.Type, ds.Value(i, f.Name), back.Value(i, f.Name)),
				"row %d column %s", i, f.Name)
		}
	}
}

func TestWriteWithCompression(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	a, err := New(nil)
	require.NoError(t, err)

	ds := testutil.SampleDataset(t, "users", 2000)
	dir := t.TempDir()

	plain := adapter.DestinationSpec{Format: FormatName, Path: filepath.Join(dir, "plain.csv")}
	plainBytes, err := a.Write(ctx, ds, plain)
	require.NoError(t, err)

	for _, alg := range []string{"gzip", "snappy", "lz4", "zstd", "s2"} {
		t.Run(alg, func(t *testing.T) {
			dest := adapter.DestinationSpec{
				Format:  FormatName,
				Path:    filepath.Join(dir, alg, "users.csv"),
				Options: map[string]string{"compression": alg},
			}

			written, err := a.Write(ctx, ds, dest)
			require.NoError(t, err)
			assert.Less(t, written, plainBytes, "compressed output should be smaller")

			// The physical file carries the algorithm's extension
			ext := compression.Extension(compression.Algorithm(alg))
			require.NotEmpty(t, ext)
			info, err := os.Stat(dest.Path + ext)
			require.NoError(t, err)
			assert.Equal(t, written, info.Size())

			size, err := a.Size(ctx, dest)
			require.NoError(t, err)
			assert.Equal(t, written, size)

			back, err := a.Read(ctx, dest)
			require.NoError(t, err)
			assert.Equal(t, ds.NumRows(), back.NumRows())
		})
	}
}

func TestCompressedPathKeepsExistingExtension(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	a, err := New(nil)
	require.NoError(t, err)

	ds := testutil.SampleDataset(t, "users", 50)
	dest := adapter.DestinationSpec{
		Format:  FormatName,
		Path:    filepath.Join(t.TempDir(), "users.csv.gz"),
		Options: map[string]string{"compression": "gzip"},
	}

	_, err = a.Write(ctx, ds, dest)
	require.NoError(t, err)

	// No double suffix when the configured path already names the codec
	_, err = os.Stat(dest.Path)
	assert.NoError(t, err)
	_, err = os.Stat(dest.Path + ".gz")
	assert.True(t, os.IsNotExist(err))

	back, err := a.Read(ctx, dest)
	require.NoError(t, err)
	assert.Equal(t, ds.NumRows(), back.NumRows())
}

func TestWriteCreatesDirectories(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	a, err := New(nil)
	require.NoError(t, err)

	ds := testutil.SampleDataset(t, "users", 5)
	dest := adapter.DestinationSpec{
		Format: FormatName,
		Path:   filepath.Join(t.TempDir(), "nested", "deeper", "users.csv"),
	}

	_, err = a.Write(ctx, ds, dest)
	require.NoError(t, err)

	_, err = os.Stat(dest.Path)
	assert.NoError(t, err)
}

func TestReadMissingFile(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	a, err := New(nil)
	require.NoError(t, err)

	dest := adapter.DestinationSpec{
		Format: FormatName,
		Path:   filepath.Join(t.TempDir(), "missing.csv"),
	}

	_, err = a.Read(ctx, dest)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeReadback))

	_, err = a.Size(ctx, dest)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeReadback))
}

func TestReadEmptyDataset(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	a, err := New(nil)
	require.NoError(t, err)

	ds := testutil.SampleDataset(t, "empty", 0)
	dest := adapter.DestinationSpec{
		Format: FormatName,
		Path:   filepath.Join(t.TempDir(), "empty.csv"),
	}

	_, err = a.Write(ctx, ds, dest)
	require.NoError(t, err)

	back, err := a.Read(ctx, dest)
	require.NoError(t, err)
	assert.Equal(t, 0, back.NumRows())
	assert.Equal(t, ds.Schema().Names(), back.Schema().Names())
}

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want dataset.FieldType
	}{
		{"all ints", [][]string{{"1"}, {"2"}}, dataset.FieldTypeInt},
		{"int widens to float", [][]string{{"1"}, {"2.5"}}, dataset.FieldTypeFloat},
		{"date widens to timestamp", [][]string{{"2025-01-01"}, {"2025-01-01T10:00:00Z"}}, dataset.FieldTypeTimestamp},
		{"mixed categories fall back to string", [][]string{{"1"}, {"hello"}}, dataset.FieldTypeString},
		{"nulls are skipped", [][]string{{""}, {"7"}}, dataset.FieldTypeInt},
		{"all nulls default to string", [][]string{{""}, {""}}, dataset.FieldTypeString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferColumnType(tt.rows, 0))
		})
	}
}

func TestUnknownCompressionOption(t *testing.T) {
	_, err := New(map[string]string{"compression": "brotli"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
