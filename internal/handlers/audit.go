package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/culthread/backoffice/internal/auth"
	"github.com/culthread/backoffice/internal/models"
	"github.com/culthread/backoffice/internal/services"
	pkghttp "github.com/culthread/backoffice/pkg/http"
)

// AuditServiceInterface defines the audit log surface the handler depends on
type AuditServiceInterface interface {
	Append(rec services.AuditRecord)
	Recent(n int) []models.AuditEntry
	ByEvent(event string) []models.AuditEntry
	ByUser(username string) []models.AuditEntry
	InRange(start, end time.Time) []models.AuditEntry
	Stats() models.AuditStats
	Export() (string, error)
	Clear()
}

// AuditHandler exposes the audit trail to the dashboard's security page
type AuditHandler struct {
	service AuditServiceInterface
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service AuditServiceInterface) *AuditHandler {
	return &AuditHandler{service: service}
}

// LogsResponse wraps a page of audit entries
type LogsResponse struct {
	Entries []models.AuditEntry `json:"entries"`
	Count   int                 `json:"count"`
}

// List returns audit entries, newest window first. Filters: limit, event,
// username, from/to (RFC 3339). Filters are mutually exclusive with limit
// paging; the dashboard uses one mode at a time.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if event := q.Get("event"); event != "" {
		entries := h.service.ByEvent(event)
		pkghttp.WriteJSON(w, http.StatusOK, LogsResponse{Entries: entries, Count: len(entries)})
		return
	}

	if username := q.Get("username"); username != "" {
		entries := h.service.ByUser(username)
		pkghttp.WriteJSON(w, http.StatusOK, LogsResponse{Entries: entries, Count: len(entries)})
		return
	}

	if fromStr, toStr := q.Get("from"), q.Get("to"); fromStr != "" || toStr != "" {
		from, to, err := parseRange(fromStr, toStr)
		if err != nil {
			pkghttp.WriteBadRequest(w, "from/to must be RFC 3339 timestamps")
			return
		}
		entries := h.service.InRange(from, to)
		pkghttp.WriteJSON(w, http.StatusOK, LogsResponse{Entries: entries, Count: len(entries)})
		return
	}

	limit := 50
	if limitStr := q.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			pkghttp.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries := h.service.Recent(limit)
	pkghttp.WriteJSON(w, http.StatusOK, LogsResponse{Entries: entries, Count: len(entries)})
}

// Stats returns rolling 24h/7d per-event counts
func (h *AuditHandler) Stats(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, h.service.Stats())
}

// Export streams the full buffer as a JSON download
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Export()
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to export audit log")
		return
	}

	filename := "audit-" + time.Now().UTC().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(data))
}

// Clear empties the audit buffer and records who did it
func (h *AuditHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.service.Clear()

	actor := ""
	if session := auth.SessionFromContext(r); session != nil {
		actor = session.Username
	}
	h.service.Append(services.AuditRecord{
		Event:    models.AuditEventLogsCleared,
		Username: actor,
		Client: models.ClientContext{
			IPAddress: pkghttp.ClientIP(r),
			UserAgent: r.Header.Get("User-Agent"),
		},
	})

	w.WriteHeader(http.StatusNoContent)
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().Add(time.Second)

	if fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
}
