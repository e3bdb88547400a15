package reports

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupReportsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	paymentRequests := `
CREATE TABLE IF NOT EXISTS payment_requests (
  id TEXT PRIMARY KEY,
  batch_id TEXT NOT NULL,
  employee_id TEXT NOT NULL,
  employee_branch TEXT NOT NULL,
  payor_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'unprocessed',
  message TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);`
	payments := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  batch_id TEXT NOT NULL,
  payment_request_id TEXT NOT NULL,
  external_payment_id TEXT,
  employee_id TEXT NOT NULL,
  payor_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL,
  message TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`

	require.NoError(t, db.Exec(paymentRequests).Error)
	require.NoError(t, db.Exec(payments).Error)
	return db
}

type seedPayment struct {
	branch  string
	payorID string
	amount  string
	status  string
}

func seedBatch(t *testing.T, db *gorm.DB, batchID uuid.UUID, rows []seedPayment) {
	t.Helper()
	for _, row := range rows {
		requestID := uuid.New()
		require.NoError(t, db.Exec(
			`INSERT INTO payment_requests (id, batch_id, employee_id, employee_branch, payor_id, amount, status) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			requestID.String(), batchID.String(), "emp-"+requestID.String()[:8], row.branch, row.payorID, row.amount, "pending",
		).Error)
		external := "pmt_" + requestID.String()[:8]
		require.NoError(t, db.Exec(
			`INSERT INTO payments (id, batch_id, payment_request_id, external_payment_id, employee_id, payor_id, amount, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
			uuid.New().String(), batchID.String(), requestID.String(), external, "emp-x", row.payorID, row.amount, row.status,
		).Error)
	}
}

func TestSourceTotalsSumsPendingOnly(t *testing.T) {
	db := setupReportsTestDB(t)
	repo := NewRepository(db)
	batchID := uuid.New()

	seedBatch(t, db, batchID, []seedPayment{
		{branch: "NJ-01", payorID: "payor-a", amount: "10.00", status: "pending"},
		{branch: "NJ-01", payorID: "payor-a", amount: "5.50", status: "pending"},
		{branch: "NJ-02", payorID: "payor-b", amount: "7.25", status: "pending"},
		{branch: "NJ-02", payorID: "payor-b", amount: "99.99", status: "failed"},
	})

	totals, err := repo.SourceTotals(context.Background(), batchID)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	assert.Equal(t, "payor-a", totals[0].PayorID)
	assert.True(t, totals[0].Total.Equal(decimal.RequireFromString("15.50")), "got %s", totals[0].Total)
	assert.Equal(t, "payor-b", totals[1].PayorID)
	assert.True(t, totals[1].Total.Equal(decimal.RequireFromString("7.25")), "got %s", totals[1].Total)
}

func TestBranchTotalsGroupsByRequestBranch(t *testing.T) {
	db := setupReportsTestDB(t)
	repo := NewRepository(db)
	batchID := uuid.New()

	seedBatch(t, db, batchID, []seedPayment{
		{branch: "NJ-01", payorID: "payor-a", amount: "10.00", status: "pending"},
		{branch: "NJ-02", payorID: "payor-a", amount: "20.00", status: "pending"},
		{branch: "NJ-02", payorID: "payor-b", amount: "30.00", status: "pending"},
	})

	totals, err := repo.BranchTotals(context.Background(), batchID)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	assert.Equal(t, "NJ-01", totals[0].Branch)
	assert.True(t, totals[0].Total.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, "NJ-02", totals[1].Branch)
	assert.True(t, totals[1].Total.Equal(decimal.RequireFromString("50.00")))
}

func TestStatusEntriesReturnsAllOutcomes(t *testing.T) {
	db := setupReportsTestDB(t)
	repo := NewRepository(db)
	batchID := uuid.New()
	otherBatch := uuid.New()

	seedBatch(t, db, batchID, []seedPayment{
		{branch: "NJ-01", payorID: "payor-a", amount: "10.00", status: "pending"},
		{branch: "NJ-01", payorID: "payor-a", amount: "20.00", status: "failed"},
	})
	seedBatch(t, db, otherBatch, []seedPayment{
		{branch: "NJ-09", payorID: "payor-z", amount: "1.00", status: "pending"},
	})

	entries, err := repo.StatusEntries(context.Background(), batchID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, "payor-a", entry.PayorID)
		assert.NotNil(t, entry.ExternalPaymentID)
	}
}
