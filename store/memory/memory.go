// Package memory provides in-memory store implementations (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/absence"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/tracker"
)

// =============================================================================
// RECORD STORE
// =============================================================================

type Store struct {
	mu       sync.RWMutex
	records  map[attendance.RecordID]*attendance.Record
	byDate   map[dateKey]attendance.RecordID
	balances map[balanceKey]*absence.Balance
}

type dateKey struct {
	UserID string
	Date   time.Time
}

type balanceKey struct {
	UserID string
	Year   int
}

func New() *Store {
	return &Store{
		records:  make(map[attendance.RecordID]*attendance.Record),
		byDate:   make(map[dateKey]attendance.RecordID),
		balances: make(map[balanceKey]*absence.Balance),
	}
}

var _ tracker.RecordStore = (*Store)(nil)
var _ tracker.BalanceStore = (*Store)(nil)

func (s *Store) FindByEmployeeAndDate(_ context.Context, userID string, date time.Time) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byDate[dateKey{UserID: userID, Date: attendance.DateOnly(date)}]
	if !ok {
		return nil, nil
	}
	r := s.records[id]
	if r == nil || r.DeletedAt != nil {
		return nil, nil
	}
	return r.Clone(), nil
}

func (s *Store) FindByEmployeeAndDateRange(_ context.Context, userID string, from, to time.Time, limit int) ([]*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to = attendance.DateOnly(from), attendance.DateOnly(to)
	var result []*attendance.Record
	for _, r := range s.records {
		if r.UserID != userID || r.DeletedAt != nil {
			continue
		}
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		result = append(result, r.Clone())
	}
	// Newest first
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) FindByID(_ context.Context, id attendance.RecordID) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.records[id]
	if r == nil || r.DeletedAt != nil {
		return nil, nil
	}
	return r.Clone(), nil
}

func (s *Store) Create(_ context.Context, r *attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := dateKey{UserID: r.UserID, Date: attendance.DateOnly(r.Date)}
	if id, ok := s.byDate[k]; ok {
		if live := s.records[id]; live != nil && live.DeletedAt == nil {
			return attendance.ErrDuplicateEntry
		}
	}

	stored := r.Clone()
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.records[stored.ID] = stored
	s.byDate[k] = stored.ID

	r.CreatedAt = stored.CreatedAt
	r.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) Update(_ context.Context, id attendance.RecordID, patch tracker.Patch) (*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.records[id]
	if r == nil || r.DeletedAt != nil {
		return nil, attendance.ErrRecordNotFound
	}

	applyPatch(r, patch)
	r.UpdatedAt = time.Now()
	return r.Clone(), nil
}

func (s *Store) SoftDelete(_ context.Context, id attendance.RecordID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.records[id]
	if r == nil || r.DeletedAt != nil {
		return attendance.ErrRecordNotFound
	}
	r.DeletedAt = &at
	r.UpdatedAt = at
	delete(s.byDate, dateKey{UserID: r.UserID, Date: attendance.DateOnly(r.Date)})
	return nil
}

func applyPatch(r *attendance.Record, p tracker.Patch) {
	if p.ShiftStart != nil {
		r.ShiftStart = p.ShiftStart
	}
	if p.LunchStart != nil {
		r.LunchStart = p.LunchStart
	}
	if p.LunchEnd != nil {
		r.LunchEnd = p.LunchEnd
	}
	if p.ShiftEnd != nil {
		r.ShiftEnd = p.ShiftEnd
	}
	if p.VacationHours != nil {
		r.VacationHours = *p.VacationHours
	}
	if p.SickHours != nil {
		r.SickHours = *p.SickHours
	}
	if p.TotalHours != nil {
		r.TotalHours = *p.TotalHours
	}
	if p.OvertimeHours != nil {
		r.OvertimeHours = *p.OvertimeHours
	}
	if p.ApprovalStatus != nil {
		r.ApprovalStatus = *p.ApprovalStatus
	}
	if p.ManagerComments != nil {
		r.ManagerComments = *p.ManagerComments
	}
	if p.ApprovedAt != nil {
		r.ApprovedAt = p.ApprovedAt
	}
	if p.ApprovedBy != nil {
		r.ApprovedBy = *p.ApprovedBy
	}
}

// =============================================================================
// BALANCE STORE
// =============================================================================

func (s *Store) GetOrCreateBalance(_ context.Context, userID string, year int) (*absence.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := balanceKey{UserID: userID, Year: year}
	b, ok := s.balances[k]
	if !ok {
		b = absence.NewBalance(userID, year)
		s.balances[k] = b
	}
	clone := *b
	return &clone, nil
}

func (s *Store) ConsumeBalance(_ context.Context, userID string, year int, kind absence.Kind, hours decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := balanceKey{UserID: userID, Year: year}
	b, ok := s.balances[k]
	if !ok {
		b = absence.NewBalance(userID, year)
		s.balances[k] = b
	}
	return b.Consume(kind, hours)
}

func (s *Store) RefundBalance(_ context.Context, userID string, year int, kind absence.Kind, hours decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := balanceKey{UserID: userID, Year: year}
	b, ok := s.balances[k]
	if !ok {
		b = absence.NewBalance(userID, year)
		s.balances[k] = b
	}
	b.Refund(kind, hours)
	return nil
}
