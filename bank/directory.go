package bank

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrScoreOutOfRange  = errors.New("score outside allowed range")
	ErrNegativeLimit    = errors.New("limit must not be negative")
)

// Directory is the customer lookup and writeback contract. Implementations
// must treat Identifier as the only key.
type Directory interface {
	Get(ctx context.Context, identifier string) (CustomerRecord, error)
	UpdateScore(ctx context.Context, identifier string, score int) error
	UpdateLimit(ctx context.Context, identifier string, limit float64) error
}

// MemoryDirectory keeps customer records in process memory. Used for tests
// and for CSV-seeded single-node deployments.
type MemoryDirectory struct {
	mu      sync.RWMutex
	records map[string]CustomerRecord
}

var _ Directory = (*MemoryDirectory)(nil)

func NewMemoryDirectory(records ...CustomerRecord) *MemoryDirectory {
	d := &MemoryDirectory{records: make(map[string]CustomerRecord, len(records))}
	for _, rec := range records {
		d.records[rec.Identifier] = rec
	}
	return d
}

func (d *MemoryDirectory) Get(ctx context.Context, identifier string) (CustomerRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.records[identifier]
	if !ok {
		return CustomerRecord{}, fmt.Errorf("%w: %s", ErrCustomerNotFound, MaskIdentifier(identifier))
	}
	return rec, nil
}

func (d *MemoryDirectory) UpdateScore(ctx context.Context, identifier string, score int) error {
	if score < 0 || score > MaxScore {
		return fmt.Errorf("%w: %d", ErrScoreOutOfRange, score)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.records[identifier]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCustomerNotFound, MaskIdentifier(identifier))
	}
	rec.Score = score
	d.records[identifier] = rec
	return nil
}

func (d *MemoryDirectory) UpdateLimit(ctx context.Context, identifier string, limit float64) error {
	if limit < 0 {
		return fmt.Errorf("%w: %.2f", ErrNegativeLimit, limit)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.records[identifier]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCustomerNotFound, MaskIdentifier(identifier))
	}
	rec.Limit = limit
	d.records[identifier] = rec
	return nil
}
