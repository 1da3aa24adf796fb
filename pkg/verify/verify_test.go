package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ballastio/ballast/pkg/dataset"
	"github.com/ballastio/ballast/pkg/errors"
)

func buildDataset(t *testing.T, name string, fields []dataset.Field, rows [][]interface{}) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(name, fields)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, ds.AppendRow(row...))
	}
	return ds
}

func sampleFields() []dataset.Field {
	return []dataset.Field{
		{Name: "id", Type: dataset.FieldTypeInt},
		{Name: "name", Type: dataset.FieldTypeString},
		{Name: "score", Type: dataset.FieldTypeFloat},
	}
}

func sampleRows(n int) [][]interface{} {
	rows := make([][]interface{}, n)
	for i := range rows {
		rows[i] = []interface{}{int64(i), "row", float64(i) * 0.5}
	}
	return rows
}

func findings(result *Result, check Check) []Finding {
	var out []Finding
	for _, f := range result.Findings {
		if f.Check == check {
			out = append(out, f)
		}
	}
	return out
}

func TestVerifyIdenticalCopies(t *testing.T) {
	v := NewVerifier(DefaultConfig(), zaptest.NewLogger(t))

	source := buildDataset(t, "events", sampleFields(), sampleRows(100))
	target := buildDataset(t, "events", sampleFields(), sampleRows(100))

	result := v.Verify(source, target, "parquet")

	assert.Equal(t, VerdictPass, result.Verdict)
	assert.False(t, result.HardFailed())
	assert.Empty(t, result.Findings)
	assert.True(t, result.SchemaMatch)
	assert.Equal(t, 100, result.SourceRows)
	assert.Equal(t, 100, result.TargetRows)
	assert.Zero(t, result.SampleMismatches)
	assert.Len(t, result.ColumnTypes, 3)
	for _, ct := range result.ColumnTypes {
		assert.True(t, ct.Compatible)
		assert.True(t, ct.Exact)
	}
}

func TestVerifyCountMismatchIsHard(t *testing.T) {
	v := NewVerifier(DefaultConfig(), zaptest.NewLogger(t))

	source := buildDataset(t, "events", sampleFields(), sampleRows(100))
	target := buildDataset(t, "events", sampleFields(), sampleRows(99))

	result := v.Verify(source, target, "postgres")

	assert.Equal(t, VerdictFail, result.Verdict)
	counts := findings(result, CheckCount)
	require.Len(t, counts, 1)
	assert.Equal(t, SeverityHard, counts[0].Severity)

	// Schema and type checks still ran despite the count failure
	assert.True(t, result.SchemaMatch)
	assert.Len(t, result.ColumnTypes, 3)
	assert.NotZero(t, result.SampledRows)
}

func TestVerifySchemaMismatch(t *testing.T) {
	v := NewVerifier(DefaultConfig(), zaptest.NewLogger(t))
	source := buildDataset(t, "events", sampleFields(), sampleRows(10))

	t.Run("missing column is hard", func(t *testing.T) {
		target := buildDataset(t, "events", sampleFields()[:2], nil)
		for i := 0; i < 10; i++ {
			require.NoError(t, target.AppendRow(int64(i), "row"))
		}

		result := v.Verify(source, target, "parquet")

		assert.Equal(t, VerdictFail, result.Verdict)
		assert.False(t, result.SchemaMatch)
		schema := findings(result, CheckSchema)
		require.Len(t, schema, 1)
		assert.Equal(t, SeverityHard, schema[0].Severity)
		assert.Equal(t, "score", schema[0].Column)

		// Shared columns are still type- and content-checked
		assert.Len(t, result.ColumnTypes, 2)
	})

	t.Run("extra column is hard", func(t *testing.T) {
		extraFields := append(sampleFields(), dataset.Field{Name: "loaded_at", Type: dataset.FieldTypeTimestamp})
		target, err := dataset.New("events", extraFields)
		require.NoError(t, err)
		for _, row := range sampleRows(10) {
			require.NoError(t, target.AppendRow(append(row, nil)...))
		}

		result := v.Verify(source, target, "postgres")

		assert.Equal(t, VerdictFail, result.Verdict)
		assert.False(t, result.SchemaMatch)
		schema := findings(result, CheckSchema)
		require.Len(t, schema, 1)
		assert.Equal(t, "loaded_at", schema[0].Column)
	})

	t.Run("reordered columns are soft", func(t *testing.T) {
		reordered := []dataset.Field{
			{Name: "name", Type: dataset.FieldTypeString},
			{Name: "id", Type: dataset.FieldTypeInt},
			{Name: "score", Type: dataset.FieldTypeFloat},
		}
		target, err := dataset.New("events", reordered)
		require.NoError(t, err)
		for _, row := range sampleRows(10) {
			require.NoError(t, target.AppendRow(row[1], row[0], row[2]))
		}

		result := v.Verify(source, target, "postgres")

		assert.Equal(t, VerdictPass, result.Verdict)
		assert.True(t, result.SchemaMatch)
		order := findings(result, CheckColumnOrder)
		require.Len(t, order, 1)
		assert.Equal(t, SeveritySoft, order[0].Severity)
	})
}

func TestVerifyTypeCompatibility(t *testing.T) {
	v := NewVerifier(DefaultConfig(), zaptest.NewLogger(t))
	source := buildDataset(t, "events", sampleFields(), sampleRows(10))

	t.Run("widened numeric type is soft", func(t *testing.T) {
		widened := []dataset.Field{
			{Name: "id", Type: dataset.FieldTypeFloat}, // int widened to float
			{Name: "name", Type: dataset.FieldTypeString},
			{Name: "score", Type: dataset.FieldTypeFloat},
		}
		target, err := dataset.New("events", widened)
		require.NoError(t, err)
		for _, row := range sampleRows(10) {
			require.NoError(t, target.AppendRow(float64(row[0].(int64)), row[1], row[2]))
		}

		result := v.Verify(source, target, "csv")

		assert.Equal(t, VerdictPass, result.Verdict)
		types := findings(result, CheckType)
		require.Len(t, types, 1)
		assert.Equal(t, SeveritySoft, types[0].Severity)
		assert.Equal(t, "id", types[0].Column)
	})

	t.Run("category mismatch is hard", func(t *testing.T) {
		mismatched := []dataset.Field{
			{Name: "id", Type: dataset.FieldTypeInt},
			{Name: "name", Type: dataset.FieldTypeString},
			{Name: "score", Type: dataset.FieldTypeString}, // numeric became text
		}
		target, err := dataset.New("events", mismatched)
		require.NoError(t, err)
		for _, row := range sampleRows(10) {
			require.NoError(t, target.AppendRow(row[0], row[1], dataset.Format(dataset.FieldTypeFloat, row[2])))
		}

		result := v.Verify(source, target, "csv")

		assert.Equal(t, VerdictFail, result.Verdict)
		types := findings(result, CheckType)
		require.Len(t, types, 1)
		assert.Equal(t, SeverityHard, types[0].Severity)
		assert.Equal(t, "score", types[0].Column)
	})
}

func TestVerifyContentMismatch(t *testing.T) {
	v := NewVerifier(Config{SampleSize: 5}, zaptest.NewLogger(t))

	source := buildDataset(t, "events", sampleFields(), sampleRows(200))
	rows := sampleRows(200)
	rows[0][1] = "corrupted" // first row is always sampled
	target := buildDataset(t, "events", sampleFields(), rows)

	result := v.Verify(source, target, "parquet")

	assert.Equal(t, VerdictFail, result.Verdict)
	assert.Equal(t, 1, result.SampleMismatches)
	content := findings(result, CheckContent)
	require.Len(t, content, 1)
	assert.Equal(t, SeverityHard, content[0].Severity)
	assert.Equal(t, "name", content[0].Column)
}

func TestVerifyContentMismatchOutsideSample(t *testing.T) {
	source := buildDataset(t, "events", sampleFields(), sampleRows(1000))
	rows := sampleRows(1000)
	// Pick a row no sampling position lands on: not in the first or last 5,
	// and not a multiple of the stride 1000/6=166.
	rows[123][1] = "corrupted"
	target := buildDataset(t, "events", sampleFields(), rows)

	t.Run("bounded sample misses it", func(t *testing.T) {
		v := NewVerifier(Config{SampleSize: 5}, zaptest.NewLogger(t))
		result := v.Verify(source, target, "parquet")
		assert.Equal(t, VerdictPass, result.Verdict)
		assert.Zero(t, result.SampleMismatches)
	})

	t.Run("full scan catches it", func(t *testing.T) {
		v := NewVerifier(Config{SampleSize: 5, FullScan: true}, zaptest.NewLogger(t))
		result := v.Verify(source, target, "parquet")
		assert.Equal(t, VerdictFail, result.Verdict)
		assert.Equal(t, 1, result.SampleMismatches)
		assert.Equal(t, 1000, result.SampledRows)
	})
}

func TestVerifyNormalizedValuesMatch(t *testing.T) {
	v := NewVerifier(DefaultConfig(), zaptest.NewLogger(t))

	fields := []dataset.Field{{Name: "n", Type: dataset.FieldTypeInt}}
	source := buildDataset(t, "nums", fields, [][]interface{}{{int64(7)}, {int64(8)}})

	// Target holds the same values at a different width
	target, err := dataset.New("nums", fields)
	require.NoError(t, err)
	require.NoError(t, target.AppendRow(int32(7)))
	require.NoError(t, target.AppendRow(int32(8)))

	result := v.Verify(source, target, "parquet")
	assert.Equal(t, VerdictPass, result.Verdict)
	assert.Zero(t, result.SampleMismatches)
}

func TestVerifyEmptyDatasets(t *testing.T) {
	v := NewVerifier(DefaultConfig(), zaptest.NewLogger(t))

	source := buildDataset(t, "empty", sampleFields(), nil)
	target := buildDataset(t, "empty", sampleFields(), nil)

	result := v.Verify(source, target, "csv")
	assert.Equal(t, VerdictPass, result.Verdict)
	assert.Zero(t, result.SampledRows)
}

func TestResultErr(t *testing.T) {
	v := NewVerifier(DefaultConfig(), zaptest.NewLogger(t))
	source := buildDataset(t, "events", sampleFields(), sampleRows(100))

	t.Run("pass yields nil", func(t *testing.T) {
		target := buildDataset(t, "events", sampleFields(), sampleRows(100))
		result := v.Verify(source, target, "parquet")
		assert.NoError(t, result.Err())
	})

	t.Run("count mismatch", func(t *testing.T) {
		target := buildDataset(t, "events", sampleFields(), sampleRows(99))
		result := v.Verify(source, target, "parquet")

		err := result.Err()
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeCountMismatch))
		assert.True(t, errors.IsVerificationFailure(err))
		assert.Contains(t, err.Error(), "events/parquet")
	})

	t.Run("schema mismatch", func(t *testing.T) {
		target := buildDataset(t, "events", sampleFields()[:2], nil)
		for i := 0; i < 100; i++ {
			require.NoError(t, target.AppendRow(int64(i), "row"))
		}
		result := v.Verify(source, target, "csv")

		err := result.Err()
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaMismatch))
	})

	t.Run("content mismatch", func(t *testing.T) {
		rows := sampleRows(100)
		rows[0][1] = "mangled"
		target := buildDataset(t, "events", sampleFields(), rows)
		result := v.Verify(source, target, "postgres")

		err := result.Err()
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeContentMismatch))
	})
}
