package batches

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	"github.com/disburse-labs/disburser-backend/pkg/enums"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
	"github.com/disburse-labs/disburser-backend/pkg/logger"
)

type stubBatchesRepo struct {
	batch             *models.Batch
	requests          []models.PaymentRequest
	unprocessedCount  int64
	updatedStatus     enums.BatchStatus
	discardedRequests int64
	discardCalled     bool
}

func (s *stubBatchesRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubBatchesRepo) CreateBatch(ctx context.Context, batch *models.Batch) (*models.Batch, error) {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	return batch, nil
}

func (s *stubBatchesRepo) CreatePaymentRequests(ctx context.Context, requests []models.PaymentRequest) error {
	s.requests = append(s.requests, requests...)
	return nil
}

func (s *stubBatchesRepo) FindBatchByID(ctx context.Context, id uuid.UUID) (*models.Batch, error) {
	if s.batch == nil || s.batch.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *s.batch
	return &copy, nil
}

func (s *stubBatchesRepo) ListBatches(ctx context.Context) ([]models.Batch, error) {
	if s.batch == nil {
		return nil, nil
	}
	return []models.Batch{*s.batch}, nil
}

func (s *stubBatchesRepo) ListPaymentRequestsByBatch(ctx context.Context, batchID uuid.UUID) ([]models.PaymentRequest, error) {
	return s.requests, nil
}

func (s *stubBatchesRepo) ListPaymentRequestsByStatus(ctx context.Context, batchID uuid.UUID, status enums.PaymentRequestStatus) ([]models.PaymentRequest, error) {
	var out []models.PaymentRequest
	for _, req := range s.requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	return out, nil
}

func (s *stubBatchesRepo) CountPaymentRequestsByStatus(ctx context.Context, batchID uuid.UUID, status enums.PaymentRequestStatus) (int64, error) {
	return s.unprocessedCount, nil
}

func (s *stubBatchesRepo) UpdateBatchStatus(ctx context.Context, batchID uuid.UUID, status enums.BatchStatus) error {
	s.updatedStatus = status
	s.batch.Status = status
	return nil
}

func (s *stubBatchesRepo) UpdatePaymentRequestOutcome(ctx context.Context, requestID uuid.UUID, status enums.PaymentRequestStatus, message string) error {
	for i := range s.requests {
		if s.requests[i].ID == requestID {
			s.requests[i].Status = status
			s.requests[i].Message = message
		}
	}
	return nil
}

func (s *stubBatchesRepo) DiscardUnprocessedRequests(ctx context.Context, batchID uuid.UUID) (int64, error) {
	s.discardCalled = true
	return s.discardedRequests, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, logger.New(logger.Options{Output: io.Discard}))
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

func TestApproveMovesUnapprovedBatch(t *testing.T) {
	repo := &stubBatchesRepo{batch: &models.Batch{ID: uuid.New(), Status: enums.BatchStatusUnapproved}}
	svc := newTestService(t, repo)

	batch, err := svc.Approve(context.Background(), repo.batch.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if batch.Status != enums.BatchStatusApproved {
		t.Fatalf("expected approved, got %s", batch.Status)
	}
	if repo.updatedStatus != enums.BatchStatusApproved {
		t.Fatalf("expected status persisted, got %s", repo.updatedStatus)
	}
}

func TestApproveRejectsNonUnapprovedBatch(t *testing.T) {
	for _, status := range []enums.BatchStatus{
		enums.BatchStatusApproved,
		enums.BatchStatusProcessing,
		enums.BatchStatusProcessed,
		enums.BatchStatusDiscarded,
	} {
		repo := &stubBatchesRepo{batch: &models.Batch{ID: uuid.New(), Status: status}}
		svc := newTestService(t, repo)

		_, err := svc.Approve(context.Background(), repo.batch.ID)
		domainErr := pkgerrors.As(err)
		if domainErr == nil || domainErr.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("approve from %s: expected state conflict, got %v", status, err)
		}
	}
}

func TestBeginProcessingRequiresApproval(t *testing.T) {
	repo := &stubBatchesRepo{batch: &models.Batch{ID: uuid.New(), Status: enums.BatchStatusUnapproved}}
	svc := newTestService(t, repo)

	_, err := svc.BeginProcessing(context.Background(), repo.batch.ID)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestBeginProcessingResumesProcessingBatch(t *testing.T) {
	repo := &stubBatchesRepo{batch: &models.Batch{ID: uuid.New(), Status: enums.BatchStatusProcessing}}
	svc := newTestService(t, repo)

	batch, err := svc.BeginProcessing(context.Background(), repo.batch.ID)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if batch.Status != enums.BatchStatusProcessing {
		t.Fatalf("expected batch to stay processing, got %s", batch.Status)
	}
}

func TestCompleteProcessingBlockedByUnprocessedRequests(t *testing.T) {
	repo := &stubBatchesRepo{
		batch:            &models.Batch{ID: uuid.New(), Status: enums.BatchStatusProcessing},
		unprocessedCount: 3,
	}
	svc := newTestService(t, repo)

	_, err := svc.CompleteProcessing(context.Background(), repo.batch.ID)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if repo.batch.Status != enums.BatchStatusProcessing {
		t.Fatalf("batch should remain processing, got %s", repo.batch.Status)
	}
}

func TestCompleteProcessingSucceedsWhenDrained(t *testing.T) {
	repo := &stubBatchesRepo{
		batch:            &models.Batch{ID: uuid.New(), Status: enums.BatchStatusProcessing},
		unprocessedCount: 0,
	}
	svc := newTestService(t, repo)

	batch, err := svc.CompleteProcessing(context.Background(), repo.batch.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if batch.Status != enums.BatchStatusProcessed {
		t.Fatalf("expected processed, got %s", batch.Status)
	}
}

func TestDiscardCascadesToUnprocessedRequests(t *testing.T) {
	repo := &stubBatchesRepo{
		batch:             &models.Batch{ID: uuid.New(), Status: enums.BatchStatusApproved},
		discardedRequests: 5,
	}
	svc := newTestService(t, repo)

	batch, err := svc.Discard(context.Background(), repo.batch.ID)
	if err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	if batch.Status != enums.BatchStatusDiscarded {
		t.Fatalf("expected discarded, got %s", batch.Status)
	}
	if !repo.discardCalled {
		t.Fatalf("expected request cascade")
	}
}

func TestDiscardRejectsProcessingBatch(t *testing.T) {
	repo := &stubBatchesRepo{batch: &models.Batch{ID: uuid.New(), Status: enums.BatchStatusProcessing}}
	svc := newTestService(t, repo)

	_, err := svc.Discard(context.Background(), repo.batch.ID)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if repo.discardCalled {
		t.Fatalf("cascade must not run on rejected discard")
	}
}

func TestGetBatchNotFound(t *testing.T) {
	repo := &stubBatchesRepo{}
	svc := newTestService(t, repo)

	_, err := svc.GetBatch(context.Background(), uuid.New())
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
