package reports

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
)

type stubReportsRepo struct {
	sourceTotals []SourceTotal
	branchTotals []BranchTotal
	entries      []StatusEntry
}

func (s *stubReportsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubReportsRepo) SourceTotals(ctx context.Context, batchID uuid.UUID) ([]SourceTotal, error) {
	return s.sourceTotals, nil
}

func (s *stubReportsRepo) BranchTotals(ctx context.Context, batchID uuid.UUID) ([]BranchTotal, error) {
	return s.branchTotals, nil
}

func (s *stubReportsRepo) StatusEntries(ctx context.Context, batchID uuid.UUID) ([]StatusEntry, error) {
	return s.entries, nil
}

type stubBatchGetter struct {
	batch *models.Batch
}

func (s *stubBatchGetter) GetBatch(ctx context.Context, batchID uuid.UUID) (*models.Batch, error) {
	if s.batch == nil || s.batch.ID != batchID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
	}
	return s.batch, nil
}

func TestParseType(t *testing.T) {
	for _, valid := range []string{"source-totals", "branch-totals", "payment-status"} {
		if _, err := ParseType(valid); err != nil {
			t.Fatalf("%s should parse: %v", valid, err)
		}
	}
	if _, err := ParseType("quarterly"); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error for unknown type")
	}
}

func TestGenerateDispatchesByType(t *testing.T) {
	batch := &models.Batch{ID: uuid.New()}
	repo := &stubReportsRepo{
		sourceTotals: []SourceTotal{{PayorID: "payor-a"}},
		branchTotals: []BranchTotal{{Branch: "NJ-01"}},
		entries:      []StatusEntry{{PayorID: "payor-a"}},
	}
	svc, err := NewService(repo, &stubBatchGetter{batch: batch})
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	result, err := svc.Generate(context.Background(), batch.ID, TypeSourceTotals)
	if err != nil {
		t.Fatalf("source totals failed: %v", err)
	}
	if totals, ok := result.([]SourceTotal); !ok || len(totals) != 1 {
		t.Fatalf("unexpected source totals result %#v", result)
	}

	result, err = svc.Generate(context.Background(), batch.ID, TypeBranchTotals)
	if err != nil {
		t.Fatalf("branch totals failed: %v", err)
	}
	if totals, ok := result.([]BranchTotal); !ok || len(totals) != 1 {
		t.Fatalf("unexpected branch totals result %#v", result)
	}

	result, err = svc.Generate(context.Background(), batch.ID, TypePaymentStatus)
	if err != nil {
		t.Fatalf("payment status failed: %v", err)
	}
	if entries, ok := result.([]StatusEntry); !ok || len(entries) != 1 {
		t.Fatalf("unexpected status result %#v", result)
	}
}

func TestGenerateRejectsUnknownBatch(t *testing.T) {
	svc, err := NewService(&stubReportsRepo{}, &stubBatchGetter{})
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	_, err = svc.Generate(context.Background(), uuid.New(), TypeSourceTotals)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
