// Package localstore keeps the order collection in memory and persists it as
// a single JSON array through the storage adapter. It is the local-only
// variant of the order backend: it allocates order numbers itself and merges
// CSV imports by identity.
package localstore

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/licshop/ordermgr/internal/domain"
	"github.com/licshop/ordermgr/internal/storage"
	"github.com/licshop/ordermgr/pkg/errors"
)

// StorageKey is the persistence key of the order collection.
const StorageKey = "order_info_v1"

type Store struct {
	mu      sync.Mutex
	orders  []domain.Order
	persist *storage.Store
	logger  *zap.Logger
}

// New creates a store and loads any previously persisted collection.
func New(persist *storage.Store, logger *zap.Logger) *Store {
	s := &Store{persist: persist, logger: logger}
	rows := []domain.Order{}
	if persist.Load(StorageKey, &rows) {
		logger.Debug("loaded persisted orders", zap.Int("count", len(rows)))
	}
	s.orders = rows
	return s
}

// List returns one page of orders matching the search string, newest first,
// together with the total match count. Search is a case-insensitive substring
// filter over the identifying and customer fields.
func (s *Store) List(page, limit int, search string) ([]domain.Order, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	matched := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if matches(o, search) {
			matched = append(matched, o)
		}
	}

	start := (page - 1) * limit
	if start >= len(matched) {
		return []domain.Order{}, len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]domain.Order, end-start)
	copy(out, matched[start:end])
	return out, len(matched)
}

// Get returns the order with the given id.
func (s *Store) Get(id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id}
	}
	o := s.orders[i]
	return &o, nil
}

// Add creates a new order from the patch, allocates the next order number and
// inserts it at the head of the collection.
func (s *Store) Add(patch domain.OrderPatch) domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := domain.NewOrder()
	patch.Apply(&o)
	o.OrderNo = s.nextOrderNo()
	s.orders = append([]domain.Order{o}, s.orders...)
	s.flush()
	return o
}

// Update applies the patch to the order with the given id.
func (s *Store) Update(id string, patch domain.OrderPatch) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id}
	}
	patch.Apply(&s.orders[i])
	s.flush()
	o := s.orders[i]
	return &o, nil
}

// Delete removes the order with the given id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id}
	}
	s.orders = append(s.orders[:i], s.orders[i+1:]...)
	s.flush()
	return nil
}

// Duplicate clones the source order under a new identity and order number.
// The clone keeps every descriptive and commercial field of the source.
func (s *Store) Duplicate(id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id}
	}
	dup := domain.Clone(s.orders[i])
	dup.OrderNo = s.nextOrderNo()
	s.orders = append([]domain.Order{dup}, s.orders...)
	s.flush()
	return &dup, nil
}

// ConfirmPayment marks the order paid and stamps the payment date. Calling it
// again refreshes the timestamp.
func (s *Store) ConfirmPayment(id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id}
	}
	s.orders[i].MarkPaid(time.Now())
	s.flush()
	o := s.orders[i]
	return &o, nil
}

// ProvisionResource marks the order's resource as provisioned.
func (s *Store) ProvisionResource(id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id}
	}
	s.orders[i].ResourceStatus = domain.ResourceStatusProvisioned
	s.flush()
	o := s.orders[i]
	return &o, nil
}

// ImportMerge merges rows into the collection by order_info_Id: existing ids
// are replaced in place, new ids are appended. It returns how many rows were
// merged and the resulting collection size.
func (s *Store) ImportMerge(rows []domain.Order) (imported, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		if i := s.index(r.ID); i >= 0 {
			s.orders[i] = r
		} else {
			s.orders = append(s.orders, r)
		}
	}
	s.flush()
	return len(rows), len(s.orders)
}

// Export returns a copy of the full collection.
func (s *Store) Export() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// index returns the position of id in the collection, or -1. Caller holds mu.
func (s *Store) index(id string) int {
	for i, o := range s.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// nextOrderNo allocates max numeric orderno + 1, zero-padded to six digits.
// Gaps left by deletions are not reused. Caller holds mu.
func (s *Store) nextOrderNo() string {
	max := 0
	for _, o := range s.orders {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, o.OrderNo)
		if digits == "" {
			continue
		}
		if n, err := strconv.Atoi(digits); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%06d", max+1)
}

// flush persists the collection. Persistence is best effort; the in-memory
// state stays authoritative either way. Caller holds mu.
func (s *Store) flush() {
	s.persist.Save(StorageKey, s.orders)
}

func matches(o domain.Order, search string) bool {
	if search == "" {
		return true
	}
	q := strings.ToLower(search)
	for _, field := range []string{
		o.OrderNo, o.ProductID, o.PackCode, o.CustomerName,
		o.TaxCode, o.Tel, o.Email, o.PartnerCode,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
