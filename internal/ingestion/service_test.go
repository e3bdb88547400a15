package ingestion

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/internal/batches"
	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	"github.com/disburse-labs/disburser-backend/pkg/enums"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
	"github.com/disburse-labs/disburser-backend/pkg/logger"
)

type stubIngestRepo struct {
	batches.Repository
	batch    *models.Batch
	requests []models.PaymentRequest
}

func (s *stubIngestRepo) WithTx(tx *gorm.DB) batches.Repository { return s }

func (s *stubIngestRepo) CreateBatch(ctx context.Context, batch *models.Batch) (*models.Batch, error) {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	s.batch = batch
	return batch, nil
}

func (s *stubIngestRepo) CreatePaymentRequests(ctx context.Context, requests []models.PaymentRequest) error {
	s.requests = append(s.requests, requests...)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestIngestCreatesBatchAndRequests(t *testing.T) {
	repo := &stubIngestRepo{}
	svc, err := NewService(repo, passthroughTx{}, logger.New(logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	file := buildFile(row("emp-1", "$10.00"), row("emp-2", "$20.00"))
	batch, count, err := svc.Ingest(context.Background(), "payroll-2026-08.xml", strings.NewReader(file))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 requests, got %d", count)
	}
	if batch.FileName != "payroll-2026-08.xml" {
		t.Fatalf("unexpected file name %q", batch.FileName)
	}
	if batch.UploadedAt.IsZero() {
		t.Fatalf("uploaded_at should be set")
	}
	for _, req := range repo.requests {
		if req.BatchID != batch.ID {
			t.Fatalf("request not linked to batch")
		}
		if req.Status != enums.PaymentRequestStatus("") && req.Status != enums.PaymentRequestStatusUnprocessed {
			t.Fatalf("requests must start unprocessed, got %s", req.Status)
		}
	}
}

func TestIngestRejectsInvalidFileWithoutPersisting(t *testing.T) {
	repo := &stubIngestRepo{}
	svc, err := NewService(repo, passthroughTx{}, logger.New(logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	_, _, err = svc.Ingest(context.Background(), "bad.xml", strings.NewReader(buildFile(row("emp-1", "ten dollars"))))
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.batch != nil || len(repo.requests) != 0 {
		t.Fatalf("nothing may be persisted for an invalid file")
	}
}

func TestIngestRequiresFileName(t *testing.T) {
	repo := &stubIngestRepo{}
	svc, err := NewService(repo, passthroughTx{}, logger.New(logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	_, _, err = svc.Ingest(context.Background(), "", strings.NewReader(buildFile(row("emp-1", "$10.00"))))
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
