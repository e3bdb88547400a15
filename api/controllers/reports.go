package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/disburse-labs/disburser-backend/api/responses"
	"github.com/disburse-labs/disburser-backend/internal/reports"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
	"github.com/disburse-labs/disburser-backend/pkg/logger"
)

func BatchReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		batchID, err := parseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reportType, err := reports.ParseType(strings.TrimSpace(chi.URLParam(r, "reportType")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Generate(r.Context(), batchID, reportType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
