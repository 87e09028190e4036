package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shopqueue/queue-service/internal/analytics"
	"shopqueue/queue-service/internal/bulk"
	"shopqueue/queue-service/internal/fault"
	"shopqueue/queue-service/internal/queue"
	"shopqueue/queue-service/internal/store"
)

type Handler struct {
	queue     *queue.Service
	bulk      *bulk.Engine
	analytics *analytics.Engine
	store     store.QueueStore
}

func NewHandler(queueService *queue.Service, bulkEngine *bulk.Engine, analyticsEngine *analytics.Engine, queueStore store.QueueStore) *Handler {
	return &Handler{
		queue:     queueService,
		bulk:      bulkEngine,
		analytics: analyticsEngine,
		store:     queueStore,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/queues", h.handleListQueues)
	mux.HandleFunc("/api/queues/bulk/delete", h.handleBulkDelete)
	mux.HandleFunc("/api/queues/bulk/reassign", h.handleBulkReassign)
	mux.HandleFunc("/api/queues/bulk/update", h.handleBulkUpdate)
	mux.HandleFunc("/api/queues/", h.handleQueueEntry)
	mux.HandleFunc("/api/analytics/time", h.handleTimeAnalytics)
	mux.HandleFunc("/api/analytics/peak-hours", h.handlePeakHourAnalytics)
	mux.HandleFunc("/api/analytics/services", h.handleServiceAnalytics)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleListQueues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	shopID := strings.TrimSpace(query.Get("shop_id"))
	if shopID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "shop_id is required")
		return
	}

	filter := store.ListFilter{
		ShopID:     shopID,
		EmployeeID: strings.TrimSpace(query.Get("employee_id")),
		ServiceID:  strings.TrimSpace(query.Get("service_id")),
		Page:       readIntParam(query.Get("page"), 1),
		Limit:      readIntParam(query.Get("limit"), 50),
	}
	if status := strings.TrimSpace(query.Get("status")); status != "" {
		filter.Statuses = strings.Split(status, ",")
	}

	var ok bool
	if filter.DateFrom, ok = parseDateParam(w, query.Get("date_from"), false); !ok {
		return
	}
	if filter.DateTo, ok = parseDateParam(w, query.Get("date_to"), true); !ok {
		return
	}

	page, err := h.store.List(r.Context(), filter)
	if err != nil {
		log.Printf("list queues error shop=%s err=%v", shopID, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": page.Entries,
		"total":   page.Total,
		"page":    page.Page,
		"limit":   page.Limit,
	})
}

// handleQueueEntry dispatches /api/queues/{id}[/position|/transition].
func (h *Handler) handleQueueEntry(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/queues/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.handleGetEntry(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "position":
		h.handlePosition(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "transition":
		h.handleTransition(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleGetEntry(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	shopID := strings.TrimSpace(r.URL.Query().Get("shop_id"))
	if shopID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "shop_id is required")
		return
	}

	entry, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "queue entry not found")
			return
		}
		log.Printf("get entry error id=%s err=%v", id, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if entry.ShopID != shopID {
		writeError(w, http.StatusForbidden, "unauthorized", "queue entry belongs to another shop")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handlePosition(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	shopID := strings.TrimSpace(r.URL.Query().Get("shop_id"))
	if shopID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "shop_id is required")
		return
	}

	result, err := h.queue.Position(r.Context(), id, shopID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type transitionRequest struct {
	ShopID     string `json:"shop_id"`
	Status     string `json:"status"`
	EmployeeID string `json:"employee_id"`
	Notes      string `json:"notes"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req transitionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.ShopID = strings.TrimSpace(req.ShopID)
	req.Status = strings.TrimSpace(req.Status)
	if req.ShopID == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "shop_id and status are required")
		return
	}

	entry, err := h.queue.Transition(r.Context(), queue.TransitionInput{
		QueueID:    id,
		ShopID:     req.ShopID,
		NewStatus:  req.Status,
		EmployeeID: strings.TrimSpace(req.EmployeeID),
		Notes:      req.Notes,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type bulkIDsRequest struct {
	ShopID string   `json:"shop_id"`
	IDs    []string `json:"ids"`
}

func (h *Handler) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req bulkIDsRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.bulk.Delete(r.Context(), bulk.DeleteInput{
		ShopID: strings.TrimSpace(req.ShopID),
		IDs:    req.IDs,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type bulkReassignRequest struct {
	ShopID     string   `json:"shop_id"`
	IDs        []string `json:"ids"`
	EmployeeID string   `json:"employee_id"`
}

func (h *Handler) handleBulkReassign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req bulkReassignRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.bulk.Reassign(r.Context(), bulk.ReassignInput{
		ShopID:     strings.TrimSpace(req.ShopID),
		IDs:        req.IDs,
		EmployeeID: strings.TrimSpace(req.EmployeeID),
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type bulkUpdateRequest struct {
	ShopID string           `json:"shop_id"`
	IDs    []string         `json:"ids"`
	Fields bulkUpdateFields `json:"fields"`
}

type bulkUpdateFields struct {
	Status            *string `json:"status"`
	Priority          *string `json:"priority"`
	QueueNumber       *string `json:"queue_number"`
	EstimatedWaitTime *int    `json:"estimated_wait_time"`
	EmployeeID        *string `json:"employee_id"`
	Notes             *string `json:"notes"`
}

func (h *Handler) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req bulkUpdateRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.bulk.Update(r.Context(), bulk.UpdateInput{
		ShopID: strings.TrimSpace(req.ShopID),
		IDs:    req.IDs,
		Patch: store.EntryPatch{
			Status:            req.Fields.Status,
			Priority:          req.Fields.Priority,
			QueueNumber:       req.Fields.QueueNumber,
			EstimatedWaitTime: req.Fields.EstimatedWaitTime,
			EmployeeID:        req.Fields.EmployeeID,
			Notes:             req.Fields.Notes,
		},
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleTimeAnalytics(w http.ResponseWriter, r *http.Request) {
	query, ok := h.analyticsQuery(w, r)
	if !ok {
		return
	}
	report, err := h.analytics.TimeStats(r.Context(), query)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handlePeakHourAnalytics(w http.ResponseWriter, r *http.Request) {
	query, ok := h.analyticsQuery(w, r)
	if !ok {
		return
	}
	report, err := h.analytics.PeakHours(r.Context(), query)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleServiceAnalytics(w http.ResponseWriter, r *http.Request) {
	query, ok := h.analyticsQuery(w, r)
	if !ok {
		return
	}
	report, err := h.analytics.ServiceStats(r.Context(), query)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) analyticsQuery(w http.ResponseWriter, r *http.Request) (analytics.Query, bool) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return analytics.Query{}, false
	}

	values := r.URL.Query()
	query := analytics.Query{
		ShopID:     strings.TrimSpace(values.Get("shop_id")),
		EmployeeID: strings.TrimSpace(values.Get("employee_id")),
		ServiceID:  strings.TrimSpace(values.Get("service_id")),
	}

	var ok bool
	if query.DateFrom, ok = parseDateParam(w, values.Get("date_from"), false); !ok {
		return analytics.Query{}, false
	}
	if query.DateTo, ok = parseDateParam(w, values.Get("date_to"), true); !ok {
		return analytics.Query{}, false
	}
	return query, true
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

// parseDateParam accepts RFC 3339 or a bare date. A bare date_to is
// extended to the end of its day so the range stays inclusive.
func parseDateParam(w http.ResponseWriter, value string, endOfDay bool) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, true
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, true
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "dates must be RFC 3339 or YYYY-MM-DD")
		return time.Time{}, false
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Second)
	}
	return parsed, true
}

func readIntParam(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeFault maps a core error to a transport status. Messages for
// operational and unknown failures are masked; the cause was already
// logged where it happened.
func writeFault(w http.ResponseWriter, err error) {
	var fe *fault.Error
	message := "internal server error"
	if errors.As(err, &fe) {
		message = fe.Message
	}

	switch fault.CodeOf(err) {
	case fault.CodeNotFound:
		writeError(w, http.StatusNotFound, "not_found", message)
	case fault.CodeUnauthorized:
		writeError(w, http.StatusForbidden, "unauthorized", message)
	case fault.CodeValidation:
		writeError(w, http.StatusBadRequest, "validation_error", message)
	case fault.CodeOperationFailed:
		log.Printf("operation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "operation_failed", "operation failed")
	default:
		log.Printf("unknown error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
