/*
handlers.go - HTTP API handlers for the attendance tracking system

PURPOSE:
  Exposes the attendance tracker via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Clock actions:
    POST   /api/attendance/clock-in     Start the day's shift
    POST   /api/attendance/start-lunch  Begin lunch break
    POST   /api/attendance/end-lunch    End lunch break
    POST   /api/attendance/clock-out    End the day's shift

  Leave:
    POST   /api/attendance/log-vacation Log vacation hours for a day
    POST   /api/attendance/log-sick     Log sick hours for a day
    PUT    /api/attendance/{id}/vacation Correct vacation hours
    PUT    /api/attendance/{id}/sick     Correct sick hours

  Records:
    GET    /api/attendance/status       Current clock state
    GET    /api/attendance/history      Date-range listing
    PUT    /api/attendance/{id}         Timestamp correction
    DELETE /api/attendance/{id}         Soft removal

  Reports:
    GET    /api/attendance/overtime-summary Range overtime figures
    GET    /api/attendance/pay-rates        Day pay-band breakdown
    GET    /api/attendance/balance          Yearly absence balance
    GET    /api/attendance/rules            Validation rule bounds

  Approval (manager only):
    POST   /api/attendance/{id}/approve
    POST   /api/attendance/{id}/reject
    POST   /api/attendance/{id}/request-correction

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve identity from context (auth middleware)
  3. Call domain logic (tracker)
  4. Serialize response
  5. Map domain errors to HTTP

ERROR HANDLING:
  Domain errors map to JSON with appropriate HTTP status:
  - 400: Malformed input (bad JSON, unparseable dates/decimals)
  - 401: Missing/invalid token
  - 403: Acting on someone else's record
  - 404: Record not found
  - 422: Rule violations and state conflicts, with per-field details
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Identity resolution
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/tracker"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Tracker *tracker.Tracker
	Log     logrus.FieldLogger
}

// NewHandler creates a new handler around the tracker.
func NewHandler(t *tracker.Tracker) *Handler {
	return &Handler{Tracker: t, Log: logrus.StandardLogger()}
}

// =============================================================================
// CLOCK HANDLERS
// =============================================================================

// ClockIn starts the day's shift.
// POST /api/attendance/clock-in
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	h.clockAction(w, r, h.Tracker.ClockIn, http.StatusCreated)
}

// StartLunch begins the lunch break.
// POST /api/attendance/start-lunch
func (h *Handler) StartLunch(w http.ResponseWriter, r *http.Request) {
	h.clockAction(w, r, h.Tracker.StartLunch, http.StatusOK)
}

// EndLunch ends the lunch break.
// POST /api/attendance/end-lunch
func (h *Handler) EndLunch(w http.ResponseWriter, r *http.Request) {
	h.clockAction(w, r, h.Tracker.EndLunch, http.StatusOK)
}

// ClockOut ends the day's shift and finalizes the hour figures.
// POST /api/attendance/clock-out
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	h.clockAction(w, r, h.Tracker.ClockOut, http.StatusOK)
}

type clockFn func(ctx context.Context, actor tracker.Identity, date time.Time) (*attendance.Record, error)

func (h *Handler) clockAction(w http.ResponseWriter, r *http.Request, action clockFn, okStatus int) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	var req ClockRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	record, err := action(r.Context(), identity, date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, okStatus, toRecordDTO(record))
}

// Status reports the current clock state without mutating anything.
// GET /api/attendance/status?date=YYYY-MM-DD
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	date, err := parseOptionalDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	info, err := h.Tracker.Status(r.Context(), identity, date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusDTO(info))
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// LogVacation logs vacation hours for a date.
// POST /api/attendance/log-vacation
func (h *Handler) LogVacation(w http.ResponseWriter, r *http.Request) {
	h.logLeave(w, r, h.Tracker.LogVacation)
}

// LogSick logs sick hours for a date.
// POST /api/attendance/log-sick
func (h *Handler) LogSick(w http.ResponseWriter, r *http.Request) {
	h.logLeave(w, r, h.Tracker.LogSick)
}

type leaveFn func(ctx context.Context, actor tracker.Identity, date time.Time, hours decimal.Decimal) (*attendance.Record, bool, error)

func (h *Handler) logLeave(w http.ResponseWriter, r *http.Request, action leaveFn) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	var req LogLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}
	hours, err := decimal.NewFromString(req.Hours)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hours, expected a decimal string", err)
		return
	}

	record, created, err := action(r.Context(), identity, date, hours)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toRecordDTO(record))
}

// UpdateVacation corrects vacation hours on a record.
// PUT /api/attendance/{id}/vacation
func (h *Handler) UpdateVacation(w http.ResponseWriter, r *http.Request) {
	h.updateLeave(w, r, h.Tracker.UpdateVacation)
}

// UpdateSick corrects sick hours on a record.
// PUT /api/attendance/{id}/sick
func (h *Handler) UpdateSick(w http.ResponseWriter, r *http.Request) {
	h.updateLeave(w, r, h.Tracker.UpdateSick)
}

type updateLeaveFn func(ctx context.Context, actor tracker.Identity, id attendance.RecordID, hours decimal.Decimal) (*attendance.Record, error)

func (h *Handler) updateLeave(w http.ResponseWriter, r *http.Request, action updateLeaveFn) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}
	id := attendance.RecordID(chi.URLParam(r, "id"))

	var req UpdateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	hours, err := decimal.NewFromString(req.Hours)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hours, expected a decimal string", err)
		return
	}

	record, err := action(r.Context(), identity, id, hours)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(record))
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// UpdateRecord applies a partial timestamp correction.
// PUT /api/attendance/{id}
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}
	id := attendance.RecordID(chi.URLParam(r, "id"))

	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	correction := tracker.Correction{}
	fields := []struct {
		raw  *string
		dest **time.Time
		name string
	}{
		{req.ShiftStart, &correction.ShiftStart, "shift_start"},
		{req.LunchStart, &correction.LunchStart, "lunch_start"},
		{req.LunchEnd, &correction.LunchEnd, "lunch_end"},
		{req.ShiftEnd, &correction.ShiftEnd, "shift_end"},
	}
	for _, f := range fields {
		if f.raw == nil {
			continue
		}
		t, err := time.Parse(time.RFC3339, *f.raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid "+f.name+", expected RFC 3339", err)
			return
		}
		*f.dest = &t
	}

	record, err := h.Tracker.Update(r.Context(), identity, id, correction)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(record))
}

// DeleteRecord soft-removes a record.
// DELETE /api/attendance/{id}
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}
	id := attendance.RecordID(chi.URLParam(r, "id"))

	if err := h.Tracker.Delete(r.Context(), identity, id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// History lists the caller's records for a date range, newest first.
// GET /api/attendance/history?from=&to=&limit=
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	q := r.URL.Query()
	from, err := parseOptionalDate(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD", err)
		return
	}
	to, err := parseOptionalDate(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD", err)
		return
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
	}

	records, err := h.Tracker.History(r.Context(), identity, from, to, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTOs(records))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// OvertimeSummary aggregates overtime figures for a date range.
// GET /api/attendance/overtime-summary?from=&to=
func (h *Handler) OvertimeSummary(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	q := r.URL.Query()
	from, err := parseOptionalDate(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD", err)
		return
	}
	to, err := parseOptionalDate(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD", err)
		return
	}

	summary, err := h.Tracker.Overtime(r.Context(), identity, from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOvertimeSummaryDTO(summary))
}

// PayRates computes the pay-band breakdown for one day.
// GET /api/attendance/pay-rates?date=YYYY-MM-DD&rate=25.50
func (h *Handler) PayRates(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	q := r.URL.Query()
	if q.Get("date") == "" {
		writeError(w, http.StatusBadRequest, "The date parameter is required", nil)
		return
	}
	date, err := parseOptionalDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}
	rate, err := decimal.NewFromString(q.Get("rate"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate, expected a decimal string", err)
		return
	}

	breakdown, err := h.Tracker.PayRates(r.Context(), identity, date, rate)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PayRatesDTO{
		Date:          date.Format("2006-01-02"),
		HourlyRate:    rate.String(),
		RegularHours:  breakdown.RegularHours.String(),
		OvertimeHours: breakdown.OvertimeHours.String(),
		DoubleHours:   breakdown.DoubleTimeHours.String(),
		RegularPay:    breakdown.RegularPay.String(),
		OvertimePay:   breakdown.OvertimePay.String(),
		DoublePay:     breakdown.DoubleTimePay.String(),
		TotalPay:      breakdown.TotalPay.String(),
	})
}

// Balance returns the caller's absence balance for a year.
// GET /api/attendance/balance?year=2026
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed
	}

	balance, err := h.Tracker.Balance(r.Context(), identity, year)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(balance))
}

// Rules returns the validation rule bounds for client-side display.
// GET /api/attendance/rules
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Tracker.Rules())
}

// =============================================================================
// APPROVAL HANDLERS
// =============================================================================

// Approve finalizes a record (manager only).
// POST /api/attendance/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Tracker.Approve)
}

// Reject marks a record rejected and refunds leave hours (manager only).
// POST /api/attendance/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Tracker.Reject)
}

// RequestCorrection sends a record back for fixes (manager only).
// POST /api/attendance/{id}/request-correction
func (h *Handler) RequestCorrection(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Tracker.RequireCorrection)
}

type reviewFn func(ctx context.Context, actor tracker.Identity, id attendance.RecordID, comments string) (*attendance.Record, error)

func (h *Handler) review(w http.ResponseWriter, r *http.Request, action reviewFn) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}
	id := attendance.RecordID(chi.URLParam(r, "id"))

	var req ReviewRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	record, err := action(r.Context(), identity, id, req.Comments)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(record))
}

// =============================================================================
// ERROR MAPPING AND HELPERS
// =============================================================================

// writeDomainError maps tracker/attendance errors to HTTP responses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var validation *attendance.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Validation failed",
			Code:    "validation_failed",
			Details: validation.ByField(),
		})
		return
	}

	var conflict *attendance.StateConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   conflict.Message,
			Code:    "state_conflict",
			Details: conflict.AsValidation().ByField(),
		})
		return
	}

	var authz *attendance.AuthorizationError
	if errors.As(err, &authz) {
		writeError(w, http.StatusForbidden, "You are not allowed to act on this attendance entry", nil)
		return
	}

	if errors.Is(err, attendance.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "Attendance entry not found", nil)
		return
	}

	h.Log.WithError(err).Error("unhandled attendance error")
	writeError(w, http.StatusInternalServerError, "Internal error", err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// decodeOptional decodes a JSON body, treating an empty body as an
// empty request.
func decodeOptional(r *http.Request, dest any) error {
	err := json.NewDecoder(r.Body).Decode(dest)
	if err == io.EOF {
		return nil
	}
	return err
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return attendance.ParseDate(s)
}
