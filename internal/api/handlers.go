package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/domain"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"
	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/service"
)

// handleAvailability serves GET /api/v1/availability?date=YYYY-MM-DD.
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, ok := parseDateParam(w, r, "date")
	if !ok {
		return
	}

	hours, err := s.reservations.GetAvailability(r.Context(), date)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  models.DateKey(date),
		"hours": hours,
	})
}

type reserveRequest struct {
	Date            string `json:"date"`
	Hours           []int  `json:"hours"`
	CustomerID      int64  `json:"customer_id"`
	AdvancePayment  int64  `json:"advance_payment"`
	PaymentMethod   string `json:"payment_method"`
	PaymentProofRef string `json:"payment_proof_ref"`
}

// handleBookings serves POST /api/v1/bookings.
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body reserveRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := models.ParseDateKey(strings.TrimSpace(body.Date))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	booking, err := s.reservations.Reserve(r.Context(), service.ReserveInput{
		Date:            date,
		Hours:           body.Hours,
		CustomerID:      body.CustomerID,
		AdvancePayment:  body.AdvancePayment,
		PaymentMethod:   body.PaymentMethod,
		PaymentProofRef: body.PaymentProofRef,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// handleBookingByID serves GET /api/v1/bookings/{id}.
func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, ok := pathID(w, r.URL.Path, "/api/v1/bookings/")
	if !ok {
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// handleRates serves GET and PUT /api/v1/rates.
func (s *HTTPServer) handleRates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		schedule, err := s.rates.Get(r.Context())
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, schedule)

	case http.MethodPut:
		var schedule models.RateSchedule
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&schedule); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		updated, err := s.rates.Update(r.Context(), schedule)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleAdminBookings serves GET /api/v1/admin/bookings?from=&to=.
func (s *HTTPServer) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	from, ok := parseDateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(w, r, "to")
	if !ok {
		return
	}

	bookings, err := s.bookings.GetBookingsByDateRange(r.Context(), from, to)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

type paymentRequest struct {
	Amount   int64  `json:"amount"`
	Method   string `json:"method"`
	ProofRef string `json:"proof_ref"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// handleAdminBookingAction dispatches POST
// /api/v1/admin/bookings/{id}/(approve|reject|payments) and GET
// /api/v1/admin/bookings/{id}/payments.
func (s *HTTPServer) handleAdminBookingAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/admin/bookings/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	action := parts[1]

	if action == "payments" && r.Method == http.MethodGet {
		payments, err := s.bookings.GetPayments(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch action {
	case "approve":
		booking, err := s.bookings.Approve(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case "reject":
		var body rejectRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(body.Reason) == "" {
			writeError(w, http.StatusBadRequest, "reason is required")
			return
		}
		booking, err := s.bookings.Reject(r.Context(), id, body.Reason)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case "payments":
		var body paymentRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		booking, err := s.bookings.RecordPayment(r.Context(), id, body.Amount, body.Method, body.ProofRef)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleAdminExport serves GET /api/v1/admin/export?from=&to= with an xlsx
// attachment.
func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "exports are not configured")
		return
	}

	from, ok := parseDateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(w, r, "to")
	if !ok {
		return
	}

	filePath, err := s.exporter.BookingsReport(r.Context(), from, to)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(filePath))
	http.ServeFile(w, r, filePath)
}

// writeDomainError maps the error taxonomy to HTTP statuses. Conflict
// responses carry the exact contested hours.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, err error) {
	var conflict *domain.SlotConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":          "slot conflict",
			"date":           conflict.Date,
			"conflict_hours": conflict.Hours,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrSlotConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrConcurrentModification):
		// A lost optimistic-lock race is transient; tell clients to retry
		// rather than report a business conflict.
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseDateParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		writeError(w, http.StatusBadRequest, name+" is required")
		return time.Time{}, false
	}
	date, err := models.ParseDateKey(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name+" format; expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func pathID(w http.ResponseWriter, path, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return 0, false
	}
	return id, true
}
