package web

import (
	"encoding/json"
	"log"
	"net/http"

	"commission-ledger/internal/core"
)

// envelope is the response shape of every mutating route:
// {"status": "success"|"error", "data": …, "message": …}.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Status: "success", Data: data})
}

// writeDomainError maps a domain error kind to an HTTP status and writes the
// error envelope. Non-domain errors become opaque 500s; their detail goes to
// the log, not the client.
func writeDomainError(w http.ResponseWriter, err error) {
	kind := core.KindOf(err)

	var status int
	switch kind {
	case core.KindCommissionOutOfRange, core.KindInvalidQuantity, core.KindInvalidPrice,
		core.KindInvalidPaidAmount, core.KindInvalidPaymentAmount, core.KindInvalidAmount,
		core.KindInvalidInput:
		status = http.StatusBadRequest
	case core.KindCustomerNotFound, core.KindInventoryNotFound, core.KindCandidateNotFound:
		status = http.StatusNotFound
	case core.KindCustomerInactive:
		status = http.StatusUnprocessableEntity
	case core.KindInsufficientStock, core.KindCommissionExceedsSubtotal,
		core.KindNoBalanceDue, core.KindConflict:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		message = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Status: "error", Message: message, Code: string(kind)})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(envelope{Status: "error", Message: message, Code: string(core.KindInvalidInput)})
}
