package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), sqlite.Open(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestStore(t *testing.T, db *DB) *Store {
	t.Helper()
	st := &Store{
		OwnerID:      1,
		Name:         "Maple Works",
		Subdomain:    "mapleworks",
		ContactEmail: "maker@mapleworks.test",
		Description:  "Hand-made maple goods",
		Status:       StoreStatusApproved,
	}
	_, err := db.CreateStore(st)
	require.NoError(t, err)
	return st
}

func createTestProduct(t *testing.T, db *DB, storeID uint) *Product {
	t.Helper()
	product := &Product{
		StoreID:          storeID,
		Name:             "Widget",
		Description:      "Widget",
		Price:            9.99,
		Active:           true,
		ModerationStatus: ModerationApproved,
	}
	_, err := db.CreateProduct(product)
	require.NoError(t, err)
	return product
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestCreateChangeRequest_Validation(t *testing.T) {
	db := newTestDB(t)
	st := createTestStore(t, db)

	_, err := db.CreateChangeRequest(&ChangeRequest{ChangeType: "product_rename", StoreID: st.ID})
	assert.ErrorIs(t, err, ErrInvalidChangeType)

	_, err = db.CreateChangeRequest(&ChangeRequest{ChangeType: ChangeProductUpdate, StoreID: st.ID})
	assert.ErrorIs(t, err, ErrMissingTarget)

	req := &ChangeRequest{
		ChangeType: ChangeStoreInfo,
		StoreID:    st.ID,
		NewData:    json.RawMessage(`{"name":"New Name"}`),
	}
	_, err = db.CreateChangeRequest(req)
	require.NoError(t, err)
	assert.Equal(t, RequestPending, req.Status)
	assert.Equal(t, SeverityNone, req.ModerationSeverity)
	assert.NotEmpty(t, req.Reference)
}

func TestApplyChangeRequest_StoreInfoPartialMerge(t *testing.T) {
	db := newTestDB(t)
	st := createTestStore(t, db)

	req := &ChangeRequest{
		ChangeType: ChangeStoreInfo,
		StoreID:    st.ID,
		NewData:    json.RawMessage(`{"name":"Maple & Oak","welcome_text":"Welcome!"}`),
	}
	_, err := db.CreateChangeRequest(req)
	require.NoError(t, err)

	applied, err := db.ApplyChangeRequest(req.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, RequestApproved, applied.Status)
	require.NotNil(t, applied.ReviewerID)
	assert.Equal(t, uint(42), *applied.ReviewerID)
	assert.NotNil(t, applied.ReviewedAt)

	got, err := db.GetStoreByID(st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maple & Oak", got.Name)
	assert.Equal(t, "Welcome!", got.WelcomeText)
	// Keys absent from new_data stay untouched.
	assert.Equal(t, "Hand-made maple goods", got.Description)
	assert.Equal(t, "maker@mapleworks.test", got.ContactEmail)
}

func TestApplyChangeRequest_TerminalStateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	st := createTestStore(t, db)

	req := &ChangeRequest{
		ChangeType: ChangeStoreInfo,
		StoreID:    st.ID,
		NewData:    json.RawMessage(`{"name":"Once"}`),
	}
	_, err := db.CreateChangeRequest(req)
	require.NoError(t, err)

	_, err = db.ApplyChangeRequest(req.ID, 1)
	require.NoError(t, err)

	_, err = db.ApplyChangeRequest(req.ID, 2)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = db.RejectChangeRequest(req.ID, 2, "too late")
	assert.ErrorIs(t, err, ErrInvalidState)

	// Reviewer of the first apply is retained.
	got, err := db.GetChangeRequest(req.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReviewerID)
	assert.Equal(t, uint(1), *got.ReviewerID)
}

func TestApplyChangeRequest_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.ApplyChangeRequest(9999, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.RejectChangeRequest(9999, 1, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyChangeRequest_ProductCreate(t *testing.T) {
	db := newTestDB(t)
	st := createTestStore(t, db)

	product := &Product{
		StoreID:           st.ID,
		Name:              "Cedar Box",
		Price:             24.0,
		Active:            false,
		ModerationStatus:  ModerationPending,
		HasPendingChanges: true,
	}
	_, err := db.CreateProduct(product)
	require.NoError(t, err)

	req := &ChangeRequest{
		ChangeType: ChangeProductCreate,
		StoreID:    st.ID,
		ProductID:  &product.ID,
		NewData:    json.RawMessage(`{"name":"Cedar Box","price":24}`),
	}
	_, err = db.CreateChangeRequest(req)
	require.NoError(t, err)

	_, err = db.ApplyChangeRequest(req.ID, 7)
	require.NoError(t, err)

	got, err := db.GetProductByID(product.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.False(t, got.HasPendingChanges)
	assert.Equal(t, ModerationApproved, got.ModerationStatus)
}

func TestApplyChangeRequest_ProductUpdatePromotesOnlyNonNilDrafts(t *testing.T) {
	db := newTestDB(t)
	st := createTestStore(t, db)
	product := createTestProduct(t, db, st.ID)

	// Only the price is drafted; every other field must survive unchanged.
	product.DraftPrice = floatPtr(19.99)
	product.HasPendingChanges = true
	require.NoError(t, db.SaveProduct(product))

	req := &ChangeRequest{
		ChangeType: ChangeProductUpdate,
		StoreID:    st.ID,
		ProductID:  &product.ID,
		NewData:    json.RawMessage(`{"price":19.99}`),
	}
	_, err := db.CreateChangeRequest(req)
	require.NoError(t, err)

	applied, err := db.ApplyChangeRequest(req.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, RequestApproved, applied.Status)

	got, err := db.GetProductByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 19.99, got.Price)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, "Widget", got.Description)
	assert.False(t, got.HasPendingChanges)
	assert.Nil(t, got.DraftName)
	assert.Nil(t, got.DraftDescription)
	assert.Nil(t, got.DraftPrice)
	assert.Nil(t, got.DraftImageURL)
}

func TestApplyChangeRequest_ProductDeleteIsSoft(t *testing.T) {
	db := newTestDB(t)
	st := createTestStore(t, db)
	product := createTestProduct(t, db, st.ID)

	req := &ChangeRequest{
		ChangeType: ChangeProductDelete,
		StoreID:    st.ID,
		ProductID:  &product.ID,
	}
	_, err := db.CreateChangeRequest(req)
	require.NoError(t, err)

	_, err = db.ApplyChangeRequest(req.ID, 5)
	require.NoError(t, err)

	// The row is retained for historical order references.
	got, err := db.GetProductByID(product.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.False(t, got.HasPendingChanges)
}

func TestRejectChangeRequest_ProductCreateDeletesRow(t *testing.T) {
	db := newTestDB(t)
	st := createTestStore(t, db)

	product := &Product{
		StoreID:           st.ID,
		Name:              "Never Was",
		Price:             5,
		Active:            false,
		ModerationStatus:  ModerationPending,
		HasPendingChanges: true,
	}
	_, err := db.CreateProduct(product)
	require.NoError(t, err)

	req := &ChangeRequest{
		ChangeType: ChangeProductCreate,
		StoreID:    st.ID,
		ProductID:  &product.ID,
	}
	_, err = db.CreateChangeRequest(req)
	require.NoError(t, err)

	rejected, err := db.RejectChangeRequest(req.ID, 9, "prohibited item")
	require.NoError(t, err)
	assert.Equal(t, RequestRejected, rejected.Status)
	assert.Equal(t, "prohibited item", rejected.RejectionReason)

	_, err = db.GetProductByID(product.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Hard delete, not a gorm soft delete.
	var count int64
	require.NoError(t, db.database.Unscoped().Model(&Product{}).Where("id = ?", product.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRejectChangeRequest_ProductUpdateDiscardsDraftsOnly(t *testing.T) {
	db := newTestDB(t)
	st := createTestStore(t, db)
	product := createTestProduct(t, db, st.ID)

	product.DraftName = strPtr("Sneaky Rename")
	product.DraftPrice = floatPtr(99.99)
	product.HasPendingChanges = true
	require.NoError(t, db.SaveProduct(product))

	req := &ChangeRequest{
		ChangeType: ChangeProductUpdate,
		StoreID:    st.ID,
		ProductID:  &product.ID,
	}
	_, err := db.CreateChangeRequest(req)
	require.NoError(t, err)

	_, err = db.RejectChangeRequest(req.ID, 9, "misleading")
	require.NoError(t, err)

	got, err := db.GetProductByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, 9.99, got.Price)
	assert.Nil(t, got.DraftName)
	assert.Nil(t, got.DraftPrice)
	assert.False(t, got.HasPendingChanges)
}

func TestPendingQueue_TriageOrdering(t *testing.T) {
	db := newTestDB(t)
	st := createTestStore(t, db)

	base := time.Now().Add(-time.Hour)
	mk := func(severity string, offset time.Duration) uint {
		req := &ChangeRequest{
			ChangeType:         ChangeStoreInfo,
			StoreID:            st.ID,
			NewData:            json.RawMessage(`{"name":"x"}`),
			ModerationSeverity: severity,
		}
		req.CreatedAt = base.Add(offset)
		id, err := db.CreateChangeRequest(req)
		require.NoError(t, err)
		return id
	}

	oldNone := mk(SeverityNone, 0)
	newSevere := mk(SeveritySevere, 30*time.Minute)
	oldSevere := mk(SeveritySevere, 10*time.Minute)
	moderate := mk(SeverityModerate, 5*time.Minute)
	newNone := mk(SeverityNone, 40*time.Minute)

	queue, err := db.GetAllPendingChangeRequests()
	require.NoError(t, err)
	require.Len(t, queue, 5)

	got := make([]uint, 0, len(queue))
	for _, req := range queue {
		got = append(got, req.ID)
	}
	// Severe first, oldest first within a tier.
	assert.Equal(t, []uint{oldSevere, newSevere, moderate, oldNone, newNone}, got)
}

func TestGetPendingChangesCount(t *testing.T) {
	db := newTestDB(t)
	st := createTestStore(t, db)
	other := &Store{OwnerID: 2, Name: "Other", Subdomain: "other", Status: StoreStatusApproved}
	_, err := db.CreateStore(other)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		req := &ChangeRequest{
			ChangeType: ChangeStoreInfo,
			StoreID:    st.ID,
			NewData:    json.RawMessage(`{"name":"x"}`),
		}
		_, err := db.CreateChangeRequest(req)
		require.NoError(t, err)
	}
	reqOther := &ChangeRequest{
		ChangeType: ChangeStoreInfo,
		StoreID:    other.ID,
		NewData:    json.RawMessage(`{"name":"y"}`),
	}
	_, err = db.CreateChangeRequest(reqOther)
	require.NoError(t, err)

	// Resolve one; it must leave the pending count.
	queue, err := db.GetAllPendingChangeRequests()
	require.NoError(t, err)
	_, err = db.ApplyChangeRequest(queue[0].ID, 1)
	require.NoError(t, err)

	count, err := db.GetPendingChangesCount(st.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
