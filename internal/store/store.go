// Package store holds the client-side view of the order collection: the
// current page, filter and selection state, and the orchestration of backend
// calls. It is constructed with its backend injected so tests and tools can
// swap the real API client for a mock.
package store

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/licshop/ordermgr/internal/domain"
	"github.com/licshop/ordermgr/internal/orderapi"
	"github.com/licshop/ordermgr/pkg/errors"
)

// Backend is the set of remote operations the store depends on. The order API
// client implements it.
type Backend interface {
	ListOrders(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error)
	CreateOrder(ctx context.Context, patch domain.OrderPatch) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	DuplicateOrder(ctx context.Context, id string) (*domain.Order, error)
	ConfirmPayment(ctx context.Context, id string) error
	ProvisionResource(ctx context.Context, id string) error
	ExportCSV(ctx context.Context) ([]byte, error)
	ImportCSV(ctx context.Context, filename string, content io.Reader) (*orderapi.ImportResult, error)
}

// Display messages shown to the user when an operation fails. Kept verbatim
// from the production UI.
const (
	msgLoadFailed      = "Không thể tải danh sách đơn hàng"
	msgCreateFailed    = "Không thể tạo đơn hàng mới"
	msgGetFailed       = "Không thể tải thông tin đơn hàng"
	msgUpdateFailed    = "Không thể cập nhật đơn hàng"
	msgDeleteFailed    = "Không thể xóa đơn hàng"
	msgDuplicateFailed = "Không thể nhân bản đơn hàng"
	msgConfirmFailed   = "Không thể xác nhận thanh toán"
	msgProvisionFailed = "Không thể cấp tài nguyên"
	msgExportFailed    = "Không thể xuất khẩu đơn hàng"
	msgImportFailed    = "Không thể nhập khẩu đơn hàng"
)

type Store struct {
	backend Backend
	logger  *zap.Logger

	mu         sync.Mutex
	orders     []domain.Order
	total      int
	page       int
	limit      int
	search     string
	selectedID string
	loading    bool
	lastErr    string
	loadSeq    uint64
}

// New creates a store around the given backend. pageSize below 1 falls back
// to 10.
func New(backend Backend, pageSize int, logger *zap.Logger) *Store {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Store{
		backend: backend,
		logger:  logger,
		orders:  []domain.Order{},
		page:    1,
		limit:   pageSize,
	}
}

// Load fetches the current page from the backend and replaces the in-memory
// list. Each call gets a monotonic sequence number; a response that arrives
// after a newer Load has started is discarded, so rapid filter changes cannot
// be overwritten by a slow stale response.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	page, limit, search := s.page, s.limit, s.search
	s.loading = true
	s.mu.Unlock()

	res, err := s.backend.ListOrders(ctx, page, limit, search)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.loadSeq {
		s.logger.Debug("discarding stale load response", zap.Uint64("seq", seq))
		return nil
	}
	s.loading = false
	if err != nil {
		return s.failLocked(msgLoadFailed, err)
	}

	s.orders = res.Rows
	s.total = res.Total
	if res.Page > 0 {
		s.page = res.Page
	}
	if res.Limit > 0 {
		s.limit = res.Limit
	}
	if s.selectedID == "" && len(s.orders) > 0 {
		s.selectedID = s.orders[0].ID
	}
	s.lastErr = ""
	return nil
}

// SetSearch updates the filter, resets to page 1 and reloads.
func (s *Store) SetSearch(ctx context.Context, q string) error {
	s.mu.Lock()
	s.search = q
	s.page = 1
	s.mu.Unlock()
	return s.Load(ctx)
}

// SetPage moves to the given page and reloads.
func (s *Store) SetPage(ctx context.Context, p int) error {
	s.mu.Lock()
	if p < 1 {
		p = 1
	}
	s.page = p
	s.mu.Unlock()
	return s.Load(ctx)
}

// SetPageSize changes the page size, resets to page 1 and reloads.
func (s *Store) SetPageSize(ctx context.Context, n int) error {
	s.mu.Lock()
	if n < 1 {
		n = 10
	}
	s.limit = n
	s.page = 1
	s.mu.Unlock()
	return s.Load(ctx)
}

// Add creates an order on the backend and inserts the returned row at the
// head of the local list, selecting it.
func (s *Store) Add(ctx context.Context, patch domain.OrderPatch) (*domain.Order, error) {
	created, err := s.backend.CreateOrder(ctx, patch)
	if err != nil {
		return nil, s.fail(msgCreateFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]domain.Order{*created}, s.orders...)
	s.total++
	s.selectedID = created.ID
	s.lastErr = ""
	return created, nil
}

// Update patches the order on the backend and replaces the local row with the
// server's canonical returned object, never a local merge.
func (s *Store) Update(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	updated, err := s.backend.UpdateOrder(ctx, id, patch)
	if err != nil {
		return nil, s.fail(msgUpdateFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(*updated)
	s.lastErr = ""
	return updated, nil
}

// Remove deletes the order remotely and locally. A NotFound from the backend
// means the row is already gone; the local list is pruned anyway. When the
// removed row was selected, selection moves to the new first row or clears.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.backend.DeleteOrder(ctx, id); err != nil {
		if _, ok := err.(*errors.ErrNotFound); !ok {
			return s.fail(msgDeleteFailed, err)
		}
		s.logger.Warn("order already deleted on backend", zap.String("id", id))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.orders {
		if o.ID == id {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			if s.total > 0 {
				s.total--
			}
			break
		}
	}
	if s.selectedID == id {
		if len(s.orders) > 0 {
			s.selectedID = s.orders[0].ID
		} else {
			s.selectedID = ""
		}
	}
	s.lastErr = ""
	return nil
}

// Duplicate clones the order server-side and inserts the clone at the head,
// selecting it.
func (s *Store) Duplicate(ctx context.Context, id string) (*domain.Order, error) {
	dup, err := s.backend.DuplicateOrder(ctx, id)
	if err != nil {
		return nil, s.fail(msgDuplicateFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]domain.Order{*dup}, s.orders...)
	s.total++
	s.selectedID = dup.ID
	s.lastErr = ""
	return dup, nil
}

// ConfirmPayment invokes the action endpoint and then re-fetches the affected
// row, so the local state reflects what the server actually recorded rather
// than an assumed outcome.
func (s *Store) ConfirmPayment(ctx context.Context, id string) error {
	if err := s.backend.ConfirmPayment(ctx, id); err != nil {
		return s.fail(msgConfirmFailed, err)
	}
	return s.refreshRow(ctx, id)
}

// ProvisionResource invokes the action endpoint and re-fetches the row; a
// provisioning failure shows up as resource_status Failed, not as a silently
// wrong Provisioned.
func (s *Store) ProvisionResource(ctx context.Context, id string) error {
	if err := s.backend.ProvisionResource(ctx, id); err != nil {
		return s.fail(msgProvisionFailed, err)
	}
	return s.refreshRow(ctx, id)
}

// ExportCSV returns the server-generated CSV of the full collection.
func (s *Store) ExportCSV(ctx context.Context) ([]byte, error) {
	data, err := s.backend.ExportCSV(ctx)
	if err != nil {
		return nil, s.fail(msgExportFailed, err)
	}
	return data, nil
}

// ImportCSV uploads a CSV file and unconditionally reloads the current page.
func (s *Store) ImportCSV(ctx context.Context, filename string, content io.Reader) (*orderapi.ImportResult, error) {
	res, err := s.backend.ImportCSV(ctx, filename, content)
	if err != nil {
		return nil, s.fail(msgImportFailed, err)
	}
	if err := s.Load(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// Select sets the selected order id. An empty id clears the selection.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = id
}

// Selected returns the selected order if it is present on the current page.
// A selection pointing outside the page reads as no selection.
func (s *Store) Selected() (*domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedID == "" {
		return nil, false
	}
	for _, o := range s.orders {
		if o.ID == s.selectedID {
			row := o
			return &row, true
		}
	}
	return nil, false
}

// Orders returns a copy of the current page.
func (s *Store) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

func (s *Store) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Store) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Store) PageSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit
}

func (s *Store) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the display message of the last failed operation, empty after a
// success.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// refreshRow fetches one order and replaces it in the local page.
func (s *Store) refreshRow(ctx context.Context, id string) error {
	row, err := s.backend.GetOrder(ctx, id)
	if err != nil {
		return s.fail(msgGetFailed, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(*row)
	s.lastErr = ""
	return nil
}

// replaceLocked swaps the row with the same id, if it is on the current page.
// Caller holds mu.
func (s *Store) replaceLocked(row domain.Order) {
	for i, o := range s.orders {
		if o.ID == row.ID {
			s.orders[i] = row
			return
		}
	}
}

func (s *Store) fail(msg string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failLocked(msg, err)
}

// failLocked records the display message and returns the wrapped cause.
// Caller holds mu.
func (s *Store) failLocked(msg string, err error) error {
	s.lastErr = msg
	s.logger.Error("order operation failed", zap.String("message", msg), zap.Error(err))
	return fmt.Errorf("%s: %w", msg, err)
}
