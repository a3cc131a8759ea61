package bank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

type RequestStatus string

const (
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// IncreaseRequest is one audit row of the limit increase ledger. CurrentLimit
// is the limit in force when the request was decided, not the limit after it.
type IncreaseRequest struct {
	CustomerID     string        `json:"customer_id"`
	RequestedAt    time.Time     `json:"requested_at"`
	CurrentLimit   float64       `json:"current_limit"`
	RequestedLimit float64       `json:"requested_limit"`
	Status         RequestStatus `json:"status"`
	Reason         string        `json:"reason,omitempty"`
}

var ErrInvalidLedgerEntry = errors.New("ledger entry is invalid")

func (r IncreaseRequest) validate() error {
	if strings.TrimSpace(r.CustomerID) == "" {
		return fmt.Errorf("%w: customer id is empty", ErrInvalidLedgerEntry)
	}
	if r.Status != RequestApproved && r.Status != RequestRejected {
		return fmt.Errorf("%w: status %q", ErrInvalidLedgerEntry, r.Status)
	}
	if r.RequestedAt.IsZero() {
		return fmt.Errorf("%w: timestamp is zero", ErrInvalidLedgerEntry)
	}
	return nil
}

// Ledger is the append-only record of limit increase decisions.
type Ledger interface {
	Record(ctx context.Context, req IncreaseRequest) error
	ListByCustomer(ctx context.Context, customerID string) ([]IncreaseRequest, error)
}

type MemoryLedger struct {
	mu      sync.RWMutex
	entries []IncreaseRequest
}

var _ Ledger = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Record(ctx context.Context, req IncreaseRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	req.RequestedAt = req.RequestedAt.UTC()

	l.mu.Lock()
	l.entries = append(l.entries, req)
	l.mu.Unlock()
	return nil
}

func (l *MemoryLedger) ListByCustomer(ctx context.Context, customerID string) ([]IncreaseRequest, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []IncreaseRequest
	for _, e := range l.entries {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len reports the total number of recorded requests.
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
