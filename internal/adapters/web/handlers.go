// Package web exposes the ledger engine over HTTP. It owns no business rules:
// it decodes requests, calls the service, and maps domain error kinds to
// status codes.
package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"commission-ledger/internal/core"
	"commission-ledger/internal/service"
)

type Handler struct {
	svc            *service.Service
	statementLimit int
}

func NewHandler(svc *service.Service, statementLimit int) http.Handler {
	if statementLimit <= 0 {
		statementLimit = 100
	}
	h := &Handler{svc: svc, statementLimit: statementLimit}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/purchases", h.commitPurchase)
		r.Post("/purchases/preview", h.previewPurchase)
		r.Post("/payments", h.applyPayment)
		r.Post("/expenses", h.recordExpense)
		r.Post("/commissions", h.recordCommission)
		r.Post("/stock-purchases", h.receiveStock)
		r.Post("/damaged-goods", h.writeOffDamagedGoods)
		r.Post("/reminders", h.recordReminder)

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.listCustomers)
			r.Post("/", h.createCustomer)
			r.Get("/{id}", h.getCustomer)
			r.Get("/{id}/ledger", h.customerLedger)
			r.Patch("/{id}/active", h.setCustomerActive)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.listInventory)
			r.Post("/", h.createInventoryItem)
			r.Get("/low-stock", h.listLowStock)
			r.Get("/{id}", h.getInventoryItem)
			r.Get("/{id}/movements", h.listMovements)
		})

		r.Route("/candidates", func(r chi.Router) {
			r.Get("/", h.listCandidates)
			r.Post("/", h.createCandidate)
			r.Patch("/{id}/active", h.setCandidateActive)
		})

		r.Get("/transactions", h.listTransactions)
	})

	return r
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// ── Postings ─────────────────────────────────────────────────────────────────

func (h *Handler) commitPurchase(w http.ResponseWriter, r *http.Request) {
	var req service.PurchaseRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	tx, err := h.svc.CommitPurchase(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, tx)
}

func (h *Handler) previewPurchase(w http.ResponseWriter, r *http.Request) {
	var req service.PurchaseRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	summary, lines, err := h.svc.PreviewPurchase(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"summary": summary, "lines": lines})
}

func (h *Handler) applyPayment(w http.ResponseWriter, r *http.Request) {
	var req service.PaymentRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	tx, err := h.svc.ApplyPayment(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, tx)
}

func (h *Handler) recordExpense(w http.ResponseWriter, r *http.Request) {
	var req service.BusinessRecordRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	tx, err := h.svc.RecordExpense(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, tx)
}

func (h *Handler) recordCommission(w http.ResponseWriter, r *http.Request) {
	var req service.BusinessRecordRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	tx, err := h.svc.RecordCommissionReceived(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, tx)
}

func (h *Handler) receiveStock(w http.ResponseWriter, r *http.Request) {
	var req service.StockPurchaseRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	tx, err := h.svc.ReceiveStock(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, tx)
}

func (h *Handler) writeOffDamagedGoods(w http.ResponseWriter, r *http.Request) {
	var req service.DamagedGoodsRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	tx, err := h.svc.WriteOffDamagedGoods(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, tx)
}

func (h *Handler) recordReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customer_id"`
		Note       string `json:"note"`
	}
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	tx, err := h.svc.RecordReminder(r.Context(), req.CustomerID, req.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, tx)
}

// ── Customers ────────────────────────────────────────────────────────────────

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCustomerRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	c, err := h.svc.CreateCustomer(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, c)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, c)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, customers)
}

func (h *Handler) customerLedger(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetStatement(r.Context(), chi.URLParam(r, "id"), h.statementLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, st)
}

func (h *Handler) setCustomerActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	c, err := h.svc.SetCustomerActive(r.Context(), chi.URLParam(r, "id"), req.Active)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, c)
}

// ── Inventory ────────────────────────────────────────────────────────────────

func (h *Handler) createInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req service.CreateInventoryItemRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	item, err := h.svc.CreateInventoryItem(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, item)
}

func (h *Handler) getInventoryItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetInventoryItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, item)
}

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListInventoryItems(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListLowStockItems(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.svc.ListStockMovements(r.Context(), chi.URLParam(r, "id"), queryLimit(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, movements)
}

// ── Commission candidates ────────────────────────────────────────────────────

func (h *Handler) createCandidate(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCandidateRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	c, err := h.svc.CreateCandidate(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, c)
}

func (h *Handler) listCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.svc.ListCandidates(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, candidates)
}

func (h *Handler) setCandidateActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	c, err := h.svc.SetCandidateActive(r.Context(), chi.URLParam(r, "id"), req.Active)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, c)
}

// ── Ledger ───────────────────────────────────────────────────────────────────

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txType := core.TransactionType(r.URL.Query().Get("type"))
	txs, err := h.svc.ListTransactions(r.Context(), txType, queryLimit(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, txs)
}

func queryLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
