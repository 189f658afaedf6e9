// Package memory keeps exported sheets in process. The worker uses it when
// no spreadsheet is configured, and tests use it to inspect exports.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	ports "finanzas/internal/sheets"
)

var _ ports.RowWriter = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	sheets map[string][][]any
	writes int
}

func New() *Store {
	return &Store{sheets: map[string][][]any{}}
}

// WriteRows replaces the sheet's rows and returns a synthetic range reference.
func (s *Store) WriteRows(_ context.Context, sheet string, rows [][]any) (string, error) {
	if strings.TrimSpace(sheet) == "" {
		return "", errors.New("sheet name is required")
	}
	cp := make([][]any, len(rows))
	for i, r := range rows {
		cp[i] = append([]any(nil), r...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheet] = cp
	s.writes++
	return fmt.Sprintf("mem:%s!A1:R%d", sheet, len(rows)), nil
}

// Rows returns a copy of the last rows written to sheet.
func (s *Store) Rows(sheet string) ([][]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.sheets[sheet]
	if !ok {
		return nil, false
	}
	cp := make([][]any, len(rows))
	for i, r := range rows {
		cp[i] = append([]any(nil), r...)
	}
	return cp, true
}

// Writes counts successful WriteRows calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
