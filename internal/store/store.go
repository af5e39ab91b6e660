// Package store persists crawled batches, one per source key.
package store

import (
	"context"
	"errors"

	"github.com/jmylchreest/propcrawl/pkg/listing"
)

// Store persists one batch per source key.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Save(ctx context.Context, key string, run *listing.Run) error
}

// Multi fans a batch out to several stores. A key exists only when every
// store has it, so a sink added later gets backfilled on the next run.
type Multi []Store

// Exists reports whether every store holds key.
func (m Multi) Exists(ctx context.Context, key string) (bool, error) {
	if len(m) == 0 {
		return false, nil
	}
	for _, s := range m {
		ok, err := s.Exists(ctx, key)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Save writes the batch to every store and joins their errors.
func (m Multi) Save(ctx context.Context, key string, run *listing.Run) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, key, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
