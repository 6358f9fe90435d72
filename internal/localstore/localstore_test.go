package localstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/licshop/ordermgr/internal/domain"
	"github.com/licshop/ordermgr/internal/storage"
	"github.com/licshop/ordermgr/pkg/errors"
)

func newTestStore(t *testing.T) (*Store, *storage.Store) {
	t.Helper()
	persist, err := storage.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return New(persist, zap.NewNop()), persist
}

func strPtr(s string) *string { return &s }

func TestAddAllocatesMaxPlusOne(t *testing.T) {
	s, _ := newTestStore(t)

	first := s.Add(domain.OrderPatch{})
	assert.Equal(t, "000001", first.OrderNo)

	// simulate a gap: 000002 was deleted at some point
	s.orders[0].OrderNo = "000003"

	next := s.Add(domain.OrderPatch{CustomerName: strPtr("X")})
	assert.Equal(t, "000004", next.OrderNo, "numbering follows max+1, not count+1")
	assert.Equal(t, "X", next.CustomerName)
	assert.Equal(t, domain.PaymentStatusUnpaid, next.PaymentStatus)
	assert.Equal(t, domain.ResourceStatusNotProvisioned, next.ResourceStatus)
}

func TestDuplicateKeepsDescriptiveFields(t *testing.T) {
	s, _ := newTestStore(t)

	src := s.Add(domain.OrderPatch{
		ProductID:    strPtr("VPRO"),
		PackCode:     strPtr("PK12"),
		CustomerName: strPtr("Nguyen Van A"),
		Tel:          strPtr("0901"),
	})

	dup, err := s.Duplicate(src.ID)
	require.NoError(t, err)

	assert.NotEqual(t, src.ID, dup.ID)
	assert.NotEqual(t, src.OrderNo, dup.OrderNo)
	assert.Equal(t, "VPRO", dup.ProductID)
	assert.Equal(t, "PK12", dup.PackCode)
	assert.Equal(t, "Nguyen Van A", dup.CustomerName)
	assert.Equal(t, "0901", dup.Tel)

	rows, total := s.List(1, 10, "")
	assert.Equal(t, 2, total)
	assert.Equal(t, dup.ID, rows[0].ID, "duplicate is inserted at the head")
}

func TestDuplicateMissingOrder(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Duplicate("nope")
	var nf *errors.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestConfirmPaymentTwiceRefreshesDate(t *testing.T) {
	s, _ := newTestStore(t)
	o := s.Add(domain.OrderPatch{})

	first, err := s.ConfirmPayment(o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, first.PaymentStatus)
	require.NotNil(t, first.PaymentDate)

	second, err := s.ConfirmPayment(o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, second.PaymentStatus)
	require.NotNil(t, second.PaymentDate)
}

func TestProvisionResource(t *testing.T) {
	s, _ := newTestStore(t)
	o := s.Add(domain.OrderPatch{})

	updated, err := s.ProvisionResource(o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ResourceStatusProvisioned, updated.ResourceStatus)
}

func TestUpdateAppliesPatch(t *testing.T) {
	s, _ := newTestStore(t)
	o := s.Add(domain.OrderPatch{CustomerName: strPtr("before")})

	amount := 250.0
	updated, err := s.Update(o.ID, domain.OrderPatch{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "before", updated.CustomerName)
	require.NotNil(t, updated.Amount)
	assert.Equal(t, 250.0, *updated.Amount)
}

func TestDeleteRemovesOrder(t *testing.T) {
	s, _ := newTestStore(t)
	o := s.Add(domain.OrderPatch{})

	require.NoError(t, s.Delete(o.ID))

	_, err := s.Get(o.ID)
	var nf *errors.ErrNotFound
	assert.ErrorAs(t, err, &nf)

	err = s.Delete(o.ID)
	assert.ErrorAs(t, err, &nf, "second delete reports not found")
}

func TestListPaginationAndSearch(t *testing.T) {
	s, _ := newTestStore(t)
	s.Add(domain.OrderPatch{CustomerName: strPtr("Alpha Corp")})
	s.Add(domain.OrderPatch{CustomerName: strPtr("Beta Ltd")})
	s.Add(domain.OrderPatch{CustomerName: strPtr("Alpha Two")})

	rows, total := s.List(1, 2, "")
	assert.Equal(t, 3, total)
	assert.Len(t, rows, 2)

	rows, total = s.List(2, 2, "")
	assert.Equal(t, 3, total)
	assert.Len(t, rows, 1)

	rows, total = s.List(1, 10, "alpha")
	assert.Equal(t, 2, total)
	assert.Len(t, rows, 2)

	rows, total = s.List(5, 10, "")
	assert.Equal(t, 3, total)
	assert.Empty(t, rows, "page beyond the end is empty, not an error")
}

func TestImportMergeByID(t *testing.T) {
	s, _ := newTestStore(t)
	existing := s.Add(domain.OrderPatch{CustomerName: strPtr("old name")})

	replacement := existing
	replacement.CustomerName = "new name"
	fresh := domain.NewOrder()
	fresh.OrderNo = "009999"

	imported, total := s.ImportMerge([]domain.Order{replacement, fresh})
	assert.Equal(t, 2, imported)
	assert.Equal(t, 2, total)

	got, err := s.Get(existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "new name", got.CustomerName)
}

func TestCollectionSurvivesRestart(t *testing.T) {
	persist, err := storage.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	s1 := New(persist, zap.NewNop())
	o := s1.Add(domain.OrderPatch{CustomerName: strPtr("persisted")})

	s2 := New(persist, zap.NewNop())
	got, err := s2.Get(o.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.CustomerName)
	assert.Equal(t, "000001", got.OrderNo)
}

func TestExportReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	s.Add(domain.OrderPatch{})

	out := s.Export()
	require.Len(t, out, 1)
	out[0].CustomerName = "mutated"

	rows, _ := s.List(1, 10, "")
	assert.NotEqual(t, "mutated", rows[0].CustomerName)
}
