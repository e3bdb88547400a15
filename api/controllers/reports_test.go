package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/disburse-labs/disburser-backend/internal/reports"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
)

type stubReportsService struct {
	generate func(ctx context.Context, batchID uuid.UUID, reportType reports.Type) (any, error)
}

func (s *stubReportsService) Generate(ctx context.Context, batchID uuid.UUID, reportType reports.Type) (any, error) {
	if s.generate != nil {
		return s.generate(ctx, batchID, reportType)
	}
	return nil, nil
}

func reportRequest(batchID, reportType string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches/"+batchID+"/reports/"+reportType, nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("batchId", batchID)
	rc.URLParams.Add("reportType", reportType)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestBatchReportWritesSourceTotals(t *testing.T) {
	batchID := uuid.New()
	svc := &stubReportsService{
		generate: func(ctx context.Context, id uuid.UUID, reportType reports.Type) (any, error) {
			if id != batchID {
				t.Fatalf("unexpected batch id %s", id)
			}
			if reportType != reports.TypeSourceTotals {
				t.Fatalf("unexpected report type %s", reportType)
			}
			return []reports.SourceTotal{{PayorID: "payor-1", Total: decimal.RequireFromString("104.50")}}, nil
		},
	}

	resp := httptest.NewRecorder()
	BatchReport(svc, nil).ServeHTTP(resp, reportRequest(batchID.String(), "source-totals"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data []reports.SourceTotal `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].PayorID != "payor-1" {
		t.Fatalf("unexpected payload %#v", envelope.Data)
	}
}

func TestBatchReportRejectsUnknownType(t *testing.T) {
	called := false
	svc := &stubReportsService{
		generate: func(ctx context.Context, id uuid.UUID, reportType reports.Type) (any, error) {
			called = true
			return nil, nil
		},
	}

	resp := httptest.NewRecorder()
	BatchReport(svc, nil).ServeHTTP(resp, reportRequest(uuid.NewString(), "velocity"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if called {
		t.Fatal("service should not run for unknown report type")
	}
}

func TestBatchReportPropagatesNotFound(t *testing.T) {
	svc := &stubReportsService{
		generate: func(ctx context.Context, id uuid.UUID, reportType reports.Type) (any, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		},
	}

	resp := httptest.NewRecorder()
	BatchReport(svc, nil).ServeHTTP(resp, reportRequest(uuid.NewString(), "payment-status"))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
