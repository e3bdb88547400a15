package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
)

// Type names one of the supported batch reports.
type Type string

const (
	TypeSourceTotals  Type = "source-totals"
	TypeBranchTotals  Type = "branch-totals"
	TypePaymentStatus Type = "payment-status"
)

// ParseType validates a report type from a request path.
func ParseType(raw string) (Type, error) {
	switch Type(raw) {
	case TypeSourceTotals, TypeBranchTotals, TypePaymentStatus:
		return Type(raw), nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown report type %q", raw))
	}
}

type batchGetter interface {
	GetBatch(ctx context.Context, batchID uuid.UUID) (*models.Batch, error)
}

// Service produces per-batch reports.
type Service interface {
	Generate(ctx context.Context, batchID uuid.UUID, reportType Type) (any, error)
}

type service struct {
	repo    Repository
	batches batchGetter
}

// NewService builds the reports service.
func NewService(repo Repository, batches batchGetter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if batches == nil {
		return nil, fmt.Errorf("batch getter required")
	}
	return &service{repo: repo, batches: batches}, nil
}

// Generate runs the named report. The batch is loaded first so a missing batch
// surfaces as not-found rather than an empty report.
func (s *service) Generate(ctx context.Context, batchID uuid.UUID, reportType Type) (any, error) {
	if _, err := s.batches.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}

	switch reportType {
	case TypeSourceTotals:
		totals, err := s.repo.SourceTotals(ctx, batchID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building source totals")
		}
		return totals, nil
	case TypeBranchTotals:
		totals, err := s.repo.BranchTotals(ctx, batchID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building branch totals")
		}
		return totals, nil
	case TypePaymentStatus:
		entries, err := s.repo.StatusEntries(ctx, batchID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building payment status report")
		}
		return entries, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown report type %q", reportType))
	}
}
