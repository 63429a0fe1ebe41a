package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tournevent/orderquote/internal/quoting"
	"github.com/tournevent/orderquote/internal/store"
	"github.com/tournevent/orderquote/pkg/shipper"
	"go.uber.org/zap"
)

// Error codes returned in error bodies.
const (
	codeInvalidRequestBody    = "INVALID_REQUEST_BODY"
	codeInvalidURLParameter   = "INVALID_URL_PARAMETER"
	codeOrderNotFound         = "ORDER_NOT_FOUND"
	codeOrderAlreadyBooked    = "ORDER_ALREADY_BOOKED"
	codeQuoteNotFound         = "QUOTE_NOT_FOUND"
	codeQuoteGenerationFailed = "QUOTE_GENERATION_FAILED"
	codeDatabaseError         = "DATABASE_ERROR"
)

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid JSON: "+err.Error())
		return
	}

	in, err := req.toNewOrder()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}

	order, err := s.service.CreateOrder(r.Context(), in)
	switch {
	case errors.Is(err, quoting.ErrInvalidOrder):
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
	case err != nil:
		s.logger.Ctx(r.Context()).Error("Failed to create order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeDatabaseError, "failed to create order")
	default:
		writeJSON(w, http.StatusCreated, order)
	}
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	order, err := s.service.GetOrder(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, "order "+id+" not found")
	case err != nil:
		s.logger.Ctx(r.Context()).Error("Failed to load order", zap.String("order_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeDatabaseError, "failed to load order")
	default:
		writeJSON(w, http.StatusOK, order)
	}
}

func (s *Server) handleGenerateQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid JSON: "+err.Error())
		return
	}
	carriers, err := req.carrierCodes()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}

	outcome := s.service.GenerateQuote(r.Context(), id, carriers)
	switch outcome.Kind {
	case shipper.OutcomeSuccess:
		writeJSON(w, http.StatusOK, outcomeResponse{Outcome: string(outcome.Kind), Order: outcome.Order})
	case shipper.OutcomeOrderNotFound:
		writeError(w, http.StatusNotFound, codeOrderNotFound, "order "+id+" not found")
	case shipper.OutcomeOrderAlreadyBooked:
		writeError(w, http.StatusBadRequest, codeOrderAlreadyBooked, "order "+id+" is already booked")
	case shipper.OutcomeQuoteGenerationFailed:
		writeError(w, http.StatusInternalServerError, codeQuoteGenerationFailed, "failed to generate quotes")
	default:
		writeError(w, http.StatusInternalServerError, codeDatabaseError, "failed to save quotes")
	}
}

func (s *Server) handleBookOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid JSON: "+err.Error())
		return
	}
	carrier, err := shipper.ParseCarrierCode(req.Carrier)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
		return
	}

	outcome := s.service.BookOrder(r.Context(), id, carrier)
	switch outcome.Kind {
	case shipper.BookingSuccess:
		writeJSON(w, http.StatusOK, outcomeResponse{Outcome: string(outcome.Kind), Order: outcome.Order})
	case shipper.BookingOrderNotFound:
		writeError(w, http.StatusNotFound, codeOrderNotFound, "order "+id+" not found")
	case shipper.BookingOrderAlreadyBooked:
		writeError(w, http.StatusBadRequest, codeOrderAlreadyBooked, "order "+id+" is already booked")
	case shipper.BookingQuoteNotFound:
		writeError(w, http.StatusConflict, codeQuoteNotFound, outcome.Message)
	default:
		writeError(w, http.StatusInternalServerError, codeDatabaseError, "failed to save booking")
	}
}

// orderID extracts the {id} URL parameter, writing a 400 when it is blank.
func orderID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, codeInvalidURLParameter, "order id is required")
		return "", false
	}
	return id, true
}
