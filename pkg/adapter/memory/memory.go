// Package memory provides an in-process adapter that keeps written copies in
// a map. It backs tests and dry runs where no external storage is wanted;
// reported sizes are the wire-encoded value lengths.
package memory

import (
	"context"
	"sync"

	"github.com/ballastio/ballast/pkg/adapter"
	"github.com/ballastio/ballast/pkg/dataset"
	"github.com/ballastio/ballast/pkg/errors"
)

// FormatName is the registered adapter name
const FormatName = "memory"

// Adapter stores dataset copies in memory keyed by destination identity
type Adapter struct {
	mu     sync.RWMutex
	copies map[string]*dataset.Dataset
	sizes  map[string]int64
}

// New creates an in-memory adapter
func New(_ map[string]string) (*Adapter, error) {
	return &Adapter{
		copies: make(map[string]*dataset.Dataset),
		sizes:  make(map[string]int64),
	}, nil
}

// Name returns the format name
func (a *Adapter) Name() string { return FormatName }

// Write stores a deep copy of the dataset
func (a *Adapter) Write(_ context.Context, ds *dataset.Dataset, dest adapter.DestinationSpec) (int64, error) {
	if err := ds.Validate(); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeWrite, "refusing to write invalid dataset")
	}

	cp, size, err := deepCopy(ds)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	a.copies[dest.Identity()] = cp
	a.sizes[dest.Identity()] = size
	a.mu.Unlock()

	return size, nil
}

// Read returns the stored copy for the destination
func (a *Adapter) Read(_ context.Context, dest adapter.DestinationSpec) (*dataset.Dataset, error) {
	a.mu.RLock()
	cp, ok := a.copies[dest.Identity()]
	a.mu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.ErrorTypeReadback, "no copy stored for %s", dest.Identity())
	}

	// Hand out a fresh copy so callers cannot mutate the stored one
	out, _, err := deepCopy(cp)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Size reports the wire-encoded byte size of the stored copy
func (a *Adapter) Size(_ context.Context, dest adapter.DestinationSpec) (int64, error) {
	a.mu.RLock()
	size, ok := a.sizes[dest.Identity()]
	a.mu.RUnlock()

	if !ok {
		return 0, errors.Newf(errors.ErrorTypeReadback, "no copy stored for %s", dest.Identity())
	}
	return size, nil
}

func deepCopy(ds *dataset.Dataset) (*dataset.Dataset, int64, error) {
	cp, err := dataset.New(ds.Name, ds.Schema().Fields)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to copy dataset")
	}

	var size int64
	for i := 0; i < ds.NumRows(); i++ {
		row := ds.Row(i)
		for c, v := range row {
			size += int64(len(dataset.Format(ds.ColumnAt(c).Type, v))) + 1
		}
		if err := cp.AppendRow(row...); err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrorTypeWrite, "failed to copy row")
		}
	}

	return cp, size, nil
}
