package store

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/licshop/ordermgr/internal/domain"
	"github.com/licshop/ordermgr/internal/orderapi"
	"github.com/licshop/ordermgr/pkg/errors"
)

// mockBackend implements Backend with overridable behavior per test.
type mockBackend struct {
	listFn      func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error)
	createFn    func(ctx context.Context, patch domain.OrderPatch) (*domain.Order, error)
	getFn       func(ctx context.Context, id string) (*domain.Order, error)
	updateFn    func(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error)
	deleteFn    func(ctx context.Context, id string) error
	duplicateFn func(ctx context.Context, id string) (*domain.Order, error)
	confirmFn   func(ctx context.Context, id string) error
	provisionFn func(ctx context.Context, id string) error
	exportFn    func(ctx context.Context) ([]byte, error)
	importFn    func(ctx context.Context, filename string, content io.Reader) (*orderapi.ImportResult, error)
}

func (m *mockBackend) ListOrders(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
	if m.listFn == nil {
		return &orderapi.ListResult{Rows: []domain.Order{}, Page: page, Limit: limit}, nil
	}
	return m.listFn(ctx, page, limit, search)
}

func (m *mockBackend) CreateOrder(ctx context.Context, patch domain.OrderPatch) (*domain.Order, error) {
	return m.createFn(ctx, patch)
}

func (m *mockBackend) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return m.getFn(ctx, id)
}

func (m *mockBackend) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	return m.updateFn(ctx, id, patch)
}

func (m *mockBackend) DeleteOrder(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockBackend) DuplicateOrder(ctx context.Context, id string) (*domain.Order, error) {
	return m.duplicateFn(ctx, id)
}

func (m *mockBackend) ConfirmPayment(ctx context.Context, id string) error {
	return m.confirmFn(ctx, id)
}

func (m *mockBackend) ProvisionResource(ctx context.Context, id string) error {
	return m.provisionFn(ctx, id)
}

func (m *mockBackend) ExportCSV(ctx context.Context) ([]byte, error) {
	return m.exportFn(ctx)
}

func (m *mockBackend) ImportCSV(ctx context.Context, filename string, content io.Reader) (*orderapi.ImportResult, error) {
	return m.importFn(ctx, filename, content)
}

func order(id, name string) domain.Order {
	return domain.Order{ID: id, OrderNo: "000001", CustomerName: name}
}

func pageOf(orders ...domain.Order) *orderapi.ListResult {
	return &orderapi.ListResult{Rows: orders, Total: len(orders), Page: 1, Limit: 10}
}

func TestLoadReplacesListAndAutoSelectsFirst(t *testing.T) {
	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			return pageOf(order("a", "Alpha"), order("b", "Beta")), nil
		},
	}
	st := New(backend, 10, zap.NewNop())

	require.NoError(t, st.Load(context.Background()))

	assert.Len(t, st.Orders(), 2)
	assert.Equal(t, 2, st.Total())
	assert.Equal(t, "a", st.SelectedID(), "first row is auto-selected when nothing was selected")

	selected, ok := st.Selected()
	require.True(t, ok)
	assert.Equal(t, "Alpha", selected.CustomerName)
}

func TestLoadKeepsExistingSelection(t *testing.T) {
	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			return pageOf(order("a", "Alpha"), order("b", "Beta")), nil
		},
	}
	st := New(backend, 10, zap.NewNop())
	st.Select("b")

	require.NoError(t, st.Load(context.Background()))
	assert.Equal(t, "b", st.SelectedID())
}

func TestStaleLoadResponseIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				close(started)
				<-release
				return pageOf(order("stale", "Stale")), nil
			}
			return pageOf(order("fresh", "Fresh")), nil
		},
	}
	st := New(backend, 10, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- st.Load(context.Background())
	}()
	<-started

	// second load starts after the first and finishes before it
	require.NoError(t, st.Load(context.Background()))
	close(release)
	require.NoError(t, <-done)

	rows := st.Orders()
	require.Len(t, rows, 1)
	assert.Equal(t, "fresh", rows[0].ID, "the slow earlier response must not overwrite the newer one")
}

func TestSearchAndPageSizeResetToPageOne(t *testing.T) {
	var gotPage int
	var gotSearch string
	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			gotPage, gotSearch = page, search
			return &orderapi.ListResult{Rows: []domain.Order{}, Page: page, Limit: limit}, nil
		},
	}
	st := New(backend, 10, zap.NewNop())

	require.NoError(t, st.SetPage(context.Background(), 3))
	assert.Equal(t, 3, gotPage)

	require.NoError(t, st.SetSearch(context.Background(), "abc"))
	assert.Equal(t, 1, gotPage, "changing search resets to page 1")
	assert.Equal(t, "abc", gotSearch)

	require.NoError(t, st.SetPage(context.Background(), 2))
	require.NoError(t, st.SetPageSize(context.Background(), 25))
	assert.Equal(t, 1, gotPage, "changing page size resets to page 1")
	assert.Equal(t, 25, st.PageSize())
}

func TestAddInsertsAtHeadAndSelects(t *testing.T) {
	created := order("new", "Created")
	backend := &mockBackend{
		createFn: func(ctx context.Context, patch domain.OrderPatch) (*domain.Order, error) {
			return &created, nil
		},
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			return pageOf(order("a", "Alpha")), nil
		},
	}
	st := New(backend, 10, zap.NewNop())
	require.NoError(t, st.Load(context.Background()))

	got, err := st.Add(context.Background(), domain.OrderPatch{})
	require.NoError(t, err)
	assert.Equal(t, "new", got.ID)

	rows := st.Orders()
	require.Len(t, rows, 2)
	assert.Equal(t, "new", rows[0].ID)
	assert.Equal(t, 2, st.Total())
	assert.Equal(t, "new", st.SelectedID())
}

func TestUpdateUsesServerCanonicalRow(t *testing.T) {
	canonical := order("a", "Server Truth")
	canonical.PaymentTranNo = "assigned-by-server"
	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			return pageOf(order("a", "Local")), nil
		},
		updateFn: func(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
			return &canonical, nil
		},
	}
	st := New(backend, 10, zap.NewNop())
	require.NoError(t, st.Load(context.Background()))

	name := "ignored local value"
	_, err := st.Update(context.Background(), "a", domain.OrderPatch{CustomerName: &name})
	require.NoError(t, err)

	rows := st.Orders()
	assert.Equal(t, "Server Truth", rows[0].CustomerName)
	assert.Equal(t, "assigned-by-server", rows[0].PaymentTranNo)
}

func TestRemoveMovesSelection(t *testing.T) {
	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			return pageOf(order("a", "Alpha"), order("b", "Beta")), nil
		},
		deleteFn: func(ctx context.Context, id string) error { return nil },
	}
	st := New(backend, 10, zap.NewNop())
	require.NoError(t, st.Load(context.Background()))
	require.Equal(t, "a", st.SelectedID())

	require.NoError(t, st.Remove(context.Background(), "a"))
	assert.Equal(t, "b", st.SelectedID(), "selection moves to the new first row")

	require.NoError(t, st.Remove(context.Background(), "b"))
	assert.Empty(t, st.SelectedID(), "removing the only row clears the selection")
	assert.Equal(t, 0, st.Total())
}

func TestRemoveNotFoundStillPrunesLocally(t *testing.T) {
	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			return pageOf(order("a", "Alpha")), nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			return &errors.ErrNotFound{Resource: "order", ID: id}
		},
	}
	st := New(backend, 10, zap.NewNop())
	require.NoError(t, st.Load(context.Background()))

	err := st.Remove(context.Background(), "a")
	assert.NoError(t, err, "deleting an already-deleted order is not fatal")
	assert.Empty(t, st.Orders())
}

func TestDuplicateInsertsAtHeadAndSelects(t *testing.T) {
	dup := order("a2", "Alpha")
	dup.OrderNo = "000002"
	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			return pageOf(order("a", "Alpha")), nil
		},
		duplicateFn: func(ctx context.Context, id string) (*domain.Order, error) {
			return &dup, nil
		},
	}
	st := New(backend, 10, zap.NewNop())
	require.NoError(t, st.Load(context.Background()))

	got, err := st.Duplicate(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a2", got.ID)
	assert.Equal(t, "a2", st.Orders()[0].ID)
	assert.Equal(t, "a2", st.SelectedID())
	assert.Equal(t, 2, st.Total())
}

func TestConfirmPaymentRefetchesRow(t *testing.T) {
	confirmed := false
	serverRow := order("a", "Alpha")
	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			return pageOf(order("a", "Alpha")), nil
		},
		confirmFn: func(ctx context.Context, id string) error {
			confirmed = true
			row := serverRow
			row.MarkPaid(time.Now())
			serverRow = row
			return nil
		},
		getFn: func(ctx context.Context, id string) (*domain.Order, error) {
			row := serverRow
			return &row, nil
		},
	}
	st := New(backend, 10, zap.NewNop())
	require.NoError(t, st.Load(context.Background()))

	require.NoError(t, st.ConfirmPayment(context.Background(), "a"))
	assert.True(t, confirmed)

	rows := st.Orders()
	assert.Equal(t, domain.PaymentStatusPaid, rows[0].PaymentStatus)
	assert.NotNil(t, rows[0].PaymentDate, "local state reflects the server's recorded payment date")
}

func TestProvisionFailureIsVisibleAfterRefetch(t *testing.T) {
	serverRow := order("a", "Alpha")
	serverRow.ResourceStatus = domain.ResourceStatusFailed
	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			return pageOf(order("a", "Alpha")), nil
		},
		provisionFn: func(ctx context.Context, id string) error { return nil },
		getFn: func(ctx context.Context, id string) (*domain.Order, error) {
			row := serverRow
			return &row, nil
		},
	}
	st := New(backend, 10, zap.NewNop())
	require.NoError(t, st.Load(context.Background()))

	require.NoError(t, st.ProvisionResource(context.Background(), "a"))
	assert.Equal(t, domain.ResourceStatusFailed, st.Orders()[0].ResourceStatus,
		"a failed provisioning must not be shown as provisioned")
}

func TestFailedOperationRecordsDisplayMessage(t *testing.T) {
	broken := fmt.Errorf("connection refused")
	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			return nil, &errors.ErrNetwork{Operation: "GET /orders.php", Err: broken}
		},
	}
	st := New(backend, 10, zap.NewNop())

	err := st.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Không thể tải danh sách đơn hàng", st.Err())

	var ne *errors.ErrNetwork
	assert.ErrorAs(t, err, &ne, "the structured cause stays reachable through the wrap")

	// the store stays usable; a subsequent success clears the message
	backend.listFn = func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
		return pageOf(), nil
	}
	require.NoError(t, st.Load(context.Background()))
	assert.Empty(t, st.Err())
}

func TestImportReloadsCurrentPage(t *testing.T) {
	var listCalls int32
	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			atomic.AddInt32(&listCalls, 1)
			return pageOf(order("a", "Imported")), nil
		},
		importFn: func(ctx context.Context, filename string, content io.Reader) (*orderapi.ImportResult, error) {
			return &orderapi.ImportResult{Imported: 3, Total: 5}, nil
		},
	}
	st := New(backend, 10, zap.NewNop())

	res, err := st.ImportCSV(context.Background(), "orders.csv", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, int32(1), atomic.LoadInt32(&listCalls), "import triggers a reload")
	assert.Len(t, st.Orders(), 1)
}

func TestSelectionOutsideCurrentPageReadsAsNone(t *testing.T) {
	backend := &mockBackend{
		listFn: func(ctx context.Context, page, limit int, search string) (*orderapi.ListResult, error) {
			return pageOf(order("a", "Alpha")), nil
		},
	}
	st := New(backend, 10, zap.NewNop())
	require.NoError(t, st.Load(context.Background()))

	st.Select("not-on-this-page")
	_, ok := st.Selected()
	assert.False(t, ok)
}
