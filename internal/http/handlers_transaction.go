package http

import (
	"context"
	"net/http"

	"orgfees/internal/auth"
	"orgfees/internal/core"
)

// TransactionService is the fee payment workflow the handlers drive.
type TransactionService interface {
	CreateTransaction(ctx context.Context, in core.TransactionInput, actor core.Actor) (core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, in core.TransactionInput, actor core.Actor) (core.Transaction, error)
	UpdateTransactionAmount(ctx context.Context, id, amount string, actor core.Actor) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string, actor core.Actor) (core.Transaction, error)
	ListTransactions(ctx context.Context, filter core.TransactionFilter, page core.PageRequest) (core.Page[core.Transaction], error)
}

// TransactionHandler maps /transaction requests onto the service. It never
// inspects payloads beyond decoding them.
type TransactionHandler struct {
	service         TransactionService
	defaultPageSize int
	maxPageSize     int
}

func NewTransactionHandler(service TransactionService, defaultPageSize, maxPageSize int) *TransactionHandler {
	return &TransactionHandler{service: service, defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

func (h *TransactionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r, h.defaultPageSize, h.maxPageSize)
	result, err := h.service.ListTransactions(r.Context(), parseTransactionFilter(r), page)
	writeResult(w, r, "list transactions", result, err)
}

func (h *TransactionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.GetTransaction(r.Context(), r.PathValue("id"))
	writeResult(w, r, "get transaction", tx, err)
}

func (h *TransactionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(errBody.Error()).Write(w)
		return
	}
	tx, err := h.service.CreateTransaction(r.Context(), req.input(), actorOf(r))
	writeResult(w, r, "create transaction", tx, err)
}

func (h *TransactionHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(errBody.Error()).Write(w)
		return
	}
	tx, err := h.service.UpdateTransaction(r.Context(), r.PathValue("id"), req.input(), actorOf(r))
	writeResult(w, r, "update transaction", tx, err)
}

func (h *TransactionHandler) handleUpdateAmount(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(errBody.Error()).Write(w)
		return
	}
	tx, err := h.service.UpdateTransactionAmount(r.Context(), r.PathValue("id"), req.Amount.String(), actorOf(r))
	writeResult(w, r, "update transaction amount", tx, err)
}

func (h *TransactionHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.DeleteTransaction(r.Context(), r.PathValue("id"), actorOf(r))
	writeResult(w, r, "delete transaction", tx, err)
}

// actorOf returns the authenticated caller. Routes reaching a handler have
// already passed the auth middleware.
func actorOf(r *http.Request) core.Actor {
	actor, _ := auth.ActorFromContext(r.Context())
	return actor
}
