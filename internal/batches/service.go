package batches

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	"github.com/disburse-labs/disburser-backend/pkg/enums"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
	"github.com/disburse-labs/disburser-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the batch lifecycle operations.
type Service interface {
	GetBatch(ctx context.Context, batchID uuid.UUID) (*models.Batch, error)
	ListBatches(ctx context.Context) ([]models.Batch, error)
	ListPaymentRequests(ctx context.Context, batchID uuid.UUID) ([]models.PaymentRequest, error)
	Approve(ctx context.Context, batchID uuid.UUID) (*models.Batch, error)
	BeginProcessing(ctx context.Context, batchID uuid.UUID) (*models.Batch, error)
	CompleteProcessing(ctx context.Context, batchID uuid.UUID) (*models.Batch, error)
	Discard(ctx context.Context, batchID uuid.UUID) (*models.Batch, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// batchTransitions is the full set of legal status moves. Anything absent is a
// state conflict. The processing self-transition is the resume path: an
// aborted run leaves the batch processing, and the next run re-enters it.
var batchTransitions = map[enums.BatchStatus][]enums.BatchStatus{
	enums.BatchStatusUnapproved: {enums.BatchStatusApproved, enums.BatchStatusDiscarded},
	enums.BatchStatusApproved:   {enums.BatchStatusProcessing, enums.BatchStatusDiscarded},
	enums.BatchStatusProcessing: {enums.BatchStatusProcessing, enums.BatchStatusProcessed},
}

// NewService builds a batch lifecycle service with the required dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("batches repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) GetBatch(ctx context.Context, batchID uuid.UUID) (*models.Batch, error) {
	if batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id required")
	}
	batch, err := s.repo.FindBatchByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading batch")
	}
	return batch, nil
}

func (s *service) ListBatches(ctx context.Context) ([]models.Batch, error) {
	batches, err := s.repo.ListBatches(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing batches")
	}
	return batches, nil
}

func (s *service) ListPaymentRequests(ctx context.Context, batchID uuid.UUID) ([]models.PaymentRequest, error) {
	if _, err := s.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}
	requests, err := s.repo.ListPaymentRequestsByBatch(ctx, batchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing payment requests")
	}
	return requests, nil
}

func (s *service) Approve(ctx context.Context, batchID uuid.UUID) (*models.Batch, error) {
	return s.transition(ctx, batchID, enums.BatchStatusApproved, nil)
}

// BeginProcessing marks an approved batch as processing. A batch already in
// processing passes through unchanged so a run aborted on rate limiting can be
// retried for its remaining unprocessed requests.
func (s *service) BeginProcessing(ctx context.Context, batchID uuid.UUID) (*models.Batch, error) {
	return s.transition(ctx, batchID, enums.BatchStatusProcessing, nil)
}

// CompleteProcessing marks a processing batch as processed. Refuses to
// complete while any request is still unprocessed.
func (s *service) CompleteProcessing(ctx context.Context, batchID uuid.UUID) (*models.Batch, error) {
	precondition := func(ctx context.Context, repo Repository, batch *models.Batch) error {
		remaining, err := repo.CountPaymentRequestsByStatus(ctx, batch.ID, enums.PaymentRequestStatusUnprocessed)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting unprocessed requests")
		}
		if remaining > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("batch has %d unprocessed payment requests", remaining))
		}
		return nil
	}
	return s.transition(ctx, batchID, enums.BatchStatusProcessed, precondition)
}

// Discard cancels a batch before processing and cascades to its unprocessed
// payment requests. Payment audit rows are never touched.
func (s *service) Discard(ctx context.Context, batchID uuid.UUID) (*models.Batch, error) {
	var discarded int64
	batch, err := s.transition(ctx, batchID, enums.BatchStatusDiscarded, func(ctx context.Context, repo Repository, batch *models.Batch) error {
		n, err := repo.DiscardUnprocessedRequests(ctx, batch.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "discarding payment requests")
		}
		discarded = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithBatchID(ctx, batchID.String())
	s.logg.Info(s.logg.WithField(ctx, "discarded_requests", discarded), "batch discarded")
	return batch, nil
}

func (s *service) transition(ctx context.Context, batchID uuid.UUID, target enums.BatchStatus, precondition func(context.Context, Repository, *models.Batch) error) (*models.Batch, error) {
	if batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id required")
	}

	var updated *models.Batch
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		batch, err := repo.FindBatchByID(ctx, batchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading batch")
		}

		if !transitionAllowed(batch.Status, target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move batch from %s to %s", batch.Status, target))
		}

		if precondition != nil {
			if err := precondition(ctx, repo, batch); err != nil {
				return err
			}
		}

		if err := repo.UpdateBatchStatus(ctx, batchID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating batch status")
		}

		batch.Status = target
		updated = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func transitionAllowed(from, to enums.BatchStatus) bool {
	for _, candidate := range batchTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
