package ingestion

import (
	"context"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/internal/batches"
	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
	"github.com/disburse-labs/disburser-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service turns uploaded payroll files into unapproved batches.
type Service interface {
	Ingest(ctx context.Context, fileName string, file io.Reader) (*models.Batch, int, error)
}

type service struct {
	repo batches.Repository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the ingestion service.
func NewService(repo batches.Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("batches repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg, now: time.Now}, nil
}

// Ingest parses the file and creates the batch plus all of its payment
// requests in one transaction: either the whole file lands or none of it.
func (s *service) Ingest(ctx context.Context, fileName string, file io.Reader) (*models.Batch, int, error) {
	if fileName == "" {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "file name required")
	}

	requests, err := ParsePayrollFile(file)
	if err != nil {
		return nil, 0, err
	}

	batch := &models.Batch{FileName: fileName, UploadedAt: s.now().UTC()}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.CreateBatch(ctx, batch)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating batch")
		}
		for i := range requests {
			requests[i].BatchID = created.ID
		}
		if err := repo.CreatePaymentRequests(ctx, requests); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating payment requests")
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	ctx = s.logg.WithBatchID(ctx, batch.ID.String())
	fields := map[string]any{"file_name": fileName, "requests": len(requests)}
	s.logg.Info(s.logg.WithFields(ctx, fields), "payroll file ingested")
	return batch, len(requests), nil
}
