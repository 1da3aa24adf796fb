// Package testutil provides testing utilities for Ballast
package testutil

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ballastio/ballast/pkg/dataset"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// SampleFields returns the five-column schema used across the test suite:
// one integer, two text, one floating-point and one date column.
func SampleFields() []dataset.Field {
	return []dataset.Field{
		{Name: "id", Type: dataset.FieldTypeInt},
		{Name: "name", Type: dataset.FieldTypeString},
		{Name: "city", Type: dataset.FieldTypeString},
		{Name: "score", Type: dataset.FieldTypeFloat},
		{Name: "signup_date", Type: dataset.FieldTypeDate},
	}
}

// SampleDataset builds a deterministic dataset with the sample schema and
// the given number of rows.
func SampleDataset(t *testing.T, name string, rows int) *dataset.Dataset {
	t.Helper()

	ds, err := dataset.New(name, SampleFields())
	if err != nil {
		t.Fatalf("failed to create dataset: %v", err)
	}

	cities := []string{"Austin", "Berlin", "Chennai", "Denver", "Lagos"}
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < rows; i++ {
		err := ds.AppendRow(
			int64(i+1),
			"user_"+dataset.Format(dataset.FieldTypeInt, int64(i+1)),
			cities[i%len(cities)],
			float64(i)*1.5,
			base.AddDate(0, 0, i%365),
		)
		if err != nil {
			t.Fatalf("failed to append row %d: %v", i, err)
		}
	}

	return ds
}
