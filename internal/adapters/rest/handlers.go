package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ogurasousui/codex-employee-roster/internal/adapters/feed"
	"github.com/ogurasousui/codex-employee-roster/internal/adapters/presenter"
	"github.com/ogurasousui/codex-employee-roster/internal/core/company"
	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
	"github.com/ogurasousui/codex-employee-roster/internal/core/importer"
	"github.com/ogurasousui/codex-employee-roster/internal/platform/logging"
)

var (
	errUnsupportedFormat = errors.New("unsupported feed format")
	errInvalidPathParam  = errors.New("invalid path parameter")
)

// pathParam は chi の URL パラメーターを復号して返します。
// リクエストパスにエスケープが含まれる場合 chi は RawPath でルーティングするため、値はエスケープされたままです。
func pathParam(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw, nil
	}
	value, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", errInvalidPathParam, name, err)
	}
	return value, nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			respondError(w, r, fmt.Errorf("database: %w", err), http.StatusServiceUnavailable)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleImport はリクエストボディを CSV または JSON のフィードとして取り込みます。
// 形式は format クエリ、なければ Content-Type で決めます。
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	if h.limits.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxBodyBytes)
	}

	format, err := feedFormat(r)
	if err != nil {
		respondError(w, r, err, http.StatusUnsupportedMediaType)
		return
	}

	var lines []importer.Line
	switch format {
	case "json":
		lines, err = feed.ParseJSON(r.Body, h.feedOptions())
	default:
		lines, err = feed.ParseCSV(r.Body, h.feedOptions())
	}
	if err != nil {
		respondError(w, r, err, importErrorStatus(err))
		return
	}

	summary := h.importer.ImportBatch(r.Context(), lines)
	logging.FromContext(r.Context()).Info("feed imported",
		"format", format,
		"lines", len(lines),
		"succeeded", summary.SuccessCount,
		"failed", len(summary.Errors),
	)

	respondJSON(w, http.StatusOK, presenter.ImportSummary(summary))
}

func feedFormat(r *http.Request) (string, error) {
	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))); q != "" {
		if q != "csv" && q != "json" {
			return "", fmt.Errorf("%w: %s", errUnsupportedFormat, q)
		}
		return q, nil
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return "csv", nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %s", errUnsupportedFormat, contentType)
	}
	switch mediaType {
	case "text/csv", "application/csv", "text/plain":
		return "csv", nil
	case "application/json":
		return "json", nil
	default:
		return "", fmt.Errorf("%w: %s", errUnsupportedFormat, mediaType)
	}
}

func importErrorStatus(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, feed.ErrTooManyRecords):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, feed.ErrMissingHeader), errors.Is(err, feed.ErrMalformedFeed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleImportSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"type":  "array",
		"items": feed.RecordSchema(),
	})
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	email, err := pathParam(r, "email")
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	found, err := h.employees.GetEmployee(r.Context(), employee.GetEmployeeInput{Email: email})
	if err != nil {
		respondError(w, r, err, domainErrorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"employee": presenter.Employee(found)})
}

func (h *Handler) handleGetStatistics(w http.ResponseWriter, r *http.Request) {
	companyName, err := pathParam(r, "companyName")
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	stats, err := h.stats.GetStatistics(r.Context(), company.GetStatisticsInput{CompanyName: companyName})
	if err != nil {
		respondError(w, r, err, domainErrorStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"statistics": presenter.Statistics(*stats)})
}

func (h *Handler) handleListStatistics(w http.ResponseWriter, r *http.Request) {
	list, err := h.stats.ListStatistics(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"statistics": presenter.StatisticsList(list)})
}

func domainErrorStatus(err error) int {
	switch {
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return http.StatusNotFound
	case errors.Is(err, employee.ErrInvalidEmail), errors.Is(err, company.ErrInvalidCompanyName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}

	respondJSON(w, status, errorResponse{
		Error:     err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}
