package disbursement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/internal/entities"
	"github.com/disburse-labs/disburser-backend/pkg/config"
	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	"github.com/disburse-labs/disburser-backend/pkg/enums"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
	"github.com/disburse-labs/disburser-backend/pkg/logger"
	"github.com/disburse-labs/disburser-backend/pkg/method"
	"github.com/disburse-labs/disburser-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Summary reports the outcome of one batch disbursement run.
type Summary struct {
	BatchID uuid.UUID `json:"batch_id"`
	Total   int       `json:"total"`
	Pending int       `json:"pending"`
	Failed  int       `json:"failed"`
}

// Service drives the disbursement of an approved batch.
type Service interface {
	ProcessBatch(ctx context.Context, batchID uuid.UUID) (*Summary, error)
	ListPayments(ctx context.Context, batchID uuid.UUID) ([]models.Payment, error)
}

type service struct {
	repo      Repository
	gateway   PaymentGateway
	resolver  Resolver
	lifecycle Lifecycle
	tx        txRunner
	cfg       config.DisbursementConfig
	logg      *logger.Logger
	metrics   *metrics.DisbursementMetrics
}

// NewService builds the disbursement orchestrator.
func NewService(
	repo Repository,
	gateway PaymentGateway,
	resolver Resolver,
	lifecycle Lifecycle,
	tx txRunner,
	cfg config.DisbursementConfig,
	logg *logger.Logger,
	m *metrics.DisbursementMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("disbursement repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver required")
	}
	if lifecycle == nil {
		return nil, fmt.Errorf("batch lifecycle required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		gateway:   gateway,
		resolver:  resolver,
		lifecycle: lifecycle,
		tx:        tx,
		cfg:       cfg,
		logg:      logg,
		metrics:   m,
	}, nil
}

// ProcessBatch disburses every unprocessed request of an approved batch in
// bounded concurrent groups. When a request exhausts its rate-limit retries the
// run aborts after the in-flight group drains: the batch stays processing and
// untouched requests stay unprocessed so a later run can resume them.
func (s *service) ProcessBatch(ctx context.Context, batchID uuid.UUID) (*Summary, error) {
	if batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id required")
	}
	ctx = s.logg.WithBatchID(ctx, batchID.String())

	requests, err := s.repo.ListUnprocessedRequests(ctx, batchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing unprocessed requests")
	}
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "batch has no unprocessed payment requests")
	}

	batch, err := s.lifecycle.BeginProcessing(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolver.RefreshMerchants(ctx); err != nil {
		return nil, err
	}

	started := time.Now()
	summary := &Summary{BatchID: batchID, Total: len(requests)}

	var runErr error
	for start := 0; start < len(requests); start += s.cfg.GroupSize {
		end := start + s.cfg.GroupSize
		if end > len(requests) {
			end = len(requests)
		}
		group := requests[start:end]

		outcomes := make([]enums.PaymentRequestStatus, len(group))
		var g errgroup.Group
		for i := range group {
			i := i
			g.Go(func() error {
				status, err := s.processRequest(ctx, batch, &group[i])
				outcomes[i] = status
				return err
			})
		}
		err := g.Wait()

		for _, status := range outcomes {
			switch status {
			case enums.PaymentRequestStatusPending:
				summary.Pending++
			case enums.PaymentRequestStatusFailed:
				summary.Failed++
			}
		}

		if err != nil {
			runErr = err
			break
		}
	}

	if runErr != nil {
		s.metrics.ObserveBatchDuration("aborted", time.Since(started))
		s.logg.Error(ctx, "batch run aborted", runErr)
		return summary, runErr
	}

	if _, err := s.lifecycle.CompleteProcessing(ctx, batchID); err != nil {
		return summary, err
	}
	s.metrics.ObserveBatchDuration("processed", time.Since(started))

	fields := map[string]any{"total": summary.Total, "pending": summary.Pending, "failed": summary.Failed}
	s.logg.Info(s.logg.WithFields(ctx, fields), "batch processed")
	return summary, nil
}

func (s *service) ListPayments(ctx context.Context, batchID uuid.UUID) ([]models.Payment, error) {
	if batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id required")
	}
	payments, err := s.repo.ListPaymentsByBatch(ctx, batchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing payments")
	}
	return payments, nil
}

// processRequest runs one instruction end to end. Rate limiting retries the
// whole instruction with exponential backoff; exhausting the retry budget
// returns the error so the run aborts with the request left unprocessed. Every
// other failure is final for this request only: it gets a failed audit row and
// the run continues.
func (s *service) processRequest(ctx context.Context, batch *models.Batch, req *models.PaymentRequest) (enums.PaymentRequestStatus, error) {
	ctx = s.logg.WithPaymentRequestID(ctx, req.ID.String())

	var resolution *entities.Resolution
	var payment *method.Payment
	attemptErr := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		res, payErr := s.attempt(ctx, req)
		if payErr != nil {
			if pkgerrors.IsRateLimit(payErr) {
				s.metrics.IncRateLimitRetry()
				return retry.RetryableError(payErr)
			}
			return payErr
		}
		resolution = res.resolution
		payment = res.payment
		return nil
	})

	if attemptErr != nil {
		if pkgerrors.IsRateLimit(attemptErr) {
			return enums.PaymentRequestStatusUnprocessed, attemptErr
		}
		if err := s.recordOutcome(ctx, batch, req, nil, nil, attemptErr.Error()); err != nil {
			return enums.PaymentRequestStatusUnprocessed, err
		}
		s.metrics.IncInstruction(string(enums.PaymentStatusFailed))
		return enums.PaymentRequestStatusFailed, nil
	}

	if err := s.recordOutcome(ctx, batch, req, resolution, payment, ""); err != nil {
		return enums.PaymentRequestStatusUnprocessed, err
	}
	s.metrics.IncInstruction(string(enums.PaymentStatusPending))
	return enums.PaymentRequestStatusPending, nil
}

type attemptResult struct {
	resolution *entities.Resolution
	payment    *method.Payment
}

func (s *service) attempt(ctx context.Context, req *models.PaymentRequest) (*attemptResult, error) {
	resolved, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	payment, err := s.gateway.CreatePayment(ctx, method.PaymentParams{
		SourceAccountID:      resolved.PayorAccountID,
		DestinationAccountID: resolved.PayeeAccountID,
		Amount:               req.Amount,
		Description:          "Loan Pmt",
	})
	if err != nil {
		return nil, err
	}

	return &attemptResult{resolution: resolved, payment: payment}, nil
}

// recordOutcome writes the immutable payment audit row and rewrites the
// request's status in one transaction.
func (s *service) recordOutcome(ctx context.Context, batch *models.Batch, req *models.PaymentRequest, resolution *entities.Resolution, payment *method.Payment, failureMessage string) error {
	row := &models.Payment{
		BatchID:          batch.ID,
		PaymentRequestID: req.ID,
		EmployeeID:       req.EmployeeID,
		PayorID:          req.PayorID,
		Amount:           req.Amount,
	}

	requestStatus := enums.PaymentRequestStatusFailed
	if failureMessage == "" {
		row.Status = enums.PaymentStatusPending
		row.ExternalPaymentID = &payment.ID
		row.CorporateEntityID = &resolution.CorporateEntityID
		row.IndividualEntityID = &resolution.IndividualEntityID
		row.PayorAccountID = &resolution.PayorAccountID
		row.PayeeAccountID = &resolution.PayeeAccountID
		requestStatus = enums.PaymentRequestStatusPending
	} else {
		row.Status = enums.PaymentStatusFailed
		row.Message = failureMessage
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreatePayment(ctx, row); err != nil {
			return err
		}
		return repo.UpdateRequestOutcome(ctx, req.ID, requestStatus, failureMessage)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording payment outcome")
	}
	return nil
}

// backoff builds a fresh exponential schedule per instruction: InitialBackoff,
// then multiplied each retry, capped at MaxAttempts total tries.
func (s *service) backoff() retry.Backoff {
	next := s.cfg.InitialBackoff
	multiplier := time.Duration(s.cfg.BackoffMultiplier)
	b := retry.BackoffFunc(func() (time.Duration, bool) {
		delay := next
		next = next * multiplier
		return delay, false
	})
	return retry.WithMaxRetries(uint64(s.cfg.MaxAttempts-1), b)
}
