package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"finanzas/internal/core"
)

// DefaultSnapshotKey is the key the collections are saved under.
const DefaultSnapshotKey = "finance-store"

// Persister is the snapshot backend: a single key holding the serialized
// collections.
type Persister interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Set(ctx context.Context, key string, data []byte) error
}

// Snapshot holds exactly the five persisted collections.
type Snapshot struct {
	Accounts []core.Account        `json:"accounts"`
	Loans    []core.Loan           `json:"loans"`
	Services []core.Service        `json:"services"`
	Payments []core.ServicePayment `json:"payments"`
	Incomes  []core.Income         `json:"incomes"`
}

// clone deep-copies the collections so the result shares no memory with s.
func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Accounts: cloneAll(s.Accounts, core.Account.Clone),
		Loans:    cloneAll(s.Loans, core.Loan.Clone),
		Services: slices.Clone(s.Services),
		Payments: slices.Clone(s.Payments),
		Incomes:  cloneAll(s.Incomes, core.Income.Clone),
	}
}

// normalize replaces nil collections with empty ones so the snapshot always
// encodes five arrays.
func (s *Snapshot) normalize() {
	if s.Accounts == nil {
		s.Accounts = []core.Account{}
	}
	if s.Loans == nil {
		s.Loans = []core.Loan{}
	}
	if s.Services == nil {
		s.Services = []core.Service{}
	}
	if s.Payments == nil {
		s.Payments = []core.ServicePayment{}
	}
	if s.Incomes == nil {
		s.Incomes = []core.Income{}
	}
}

func encodeSnapshot(s Snapshot) ([]byte, error) {
	s.normalize()
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	s.normalize()
	for i := range s.Loans {
		if s.Loans[i].PaymentHistory == nil {
			s.Loans[i].PaymentHistory = []core.LoanPayment{}
		}
	}
	return s, nil
}
