package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tournevent/orderquote/internal/quoting"
	"github.com/tournevent/orderquote/pkg/shipper"
)

type createOrderRequest struct {
	Customer string             `json:"customer"`
	Status   string             `json:"status,omitempty"`
	Items    []shipper.LineItem `json:"items"`
}

func (r createOrderRequest) toNewOrder() (quoting.NewOrder, error) {
	status := shipper.OrderStatus(r.Status)
	if status != "" && !status.Valid() {
		return quoting.NewOrder{}, fmt.Errorf("unknown status %q", r.Status)
	}
	return quoting.NewOrder{
		Customer: r.Customer,
		Status:   status,
		Items:    r.Items,
	}, nil
}

type quoteRequest struct {
	Carriers []string `json:"carriers"`
}

// carrierCodes validates every requested carrier. The list may be empty but
// must be present.
func (r quoteRequest) carrierCodes() ([]shipper.CarrierCode, error) {
	if r.Carriers == nil {
		return nil, errors.New("carriers is required")
	}
	codes := make([]shipper.CarrierCode, 0, len(r.Carriers))
	for i, raw := range r.Carriers {
		c, err := shipper.ParseCarrierCode(raw)
		if err != nil {
			return nil, fmt.Errorf("carriers[%d]: %w", i, err)
		}
		codes = append(codes, c)
	}
	return codes, nil
}

type bookingRequest struct {
	Carrier string `json:"carrier"`
}

type outcomeResponse struct {
	Outcome string         `json:"outcome"`
	Order   *shipper.Order `json:"order"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
