// Package adapter defines the format adapter boundary: a write/read pair
// bridging an in-memory dataset and one physical storage representation.
// Adapters are stateless between invocations and own nothing beyond the
// bytes they write.
package adapter

import (
	"context"

	"github.com/ballastio/ballast/pkg/dataset"
)

// DestinationSpec identifies one physical destination for a dataset copy
type DestinationSpec struct {
	// Format is the registered adapter name (e.g. "parquet", "postgres", "csv")
	Format string `yaml:"format" json:"format"`
	// Path is the file path for file-backed formats
	Path string `yaml:"path" json:"path"`
	// Table is the relation name for table-backed formats
	Table string `yaml:"table" json:"table"`
	// Options carries adapter-specific settings (compression, connection string)
	Options map[string]string `yaml:"options" json:"options"`
}

// Option returns a named option with a fallback default
func (s DestinationSpec) Option(key, def string) string {
	if v, ok := s.Options[key]; ok && v != "" {
		return v
	}
	return def
}

// Identity returns a stable string identifying the physical destination.
// The orchestrator uses it to serialize concurrent writes per destination.
func (s DestinationSpec) Identity() string {
	if s.Path != "" {
		return s.Format + ":" + s.Path
	}
	return s.Format + ":" + s.Table
}

// Adapter writes and reads one physical storage representation
type Adapter interface {
	// Name returns the format name
	Name() string
	// Write persists the dataset and returns the number of bytes written
	Write(ctx context.Context, ds *dataset.Dataset, dest DestinationSpec) (int64, error)
	// Read loads a persisted copy back into memory
	Read(ctx context.Context, dest DestinationSpec) (*dataset.Dataset, error)
	// Size reports the current byte size of the destination
	Size(ctx context.Context, dest DestinationSpec) (int64, error)
}
