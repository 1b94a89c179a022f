package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-transactions/internal/auth"
	"ms-transactions/internal/logger"
	"ms-transactions/internal/models"
	"ms-transactions/internal/transaction"
	"ms-transactions/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	Service *transaction.TransactionService
	Logger  *logger.Logger
}

func NewHandler(service *transaction.TransactionService, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes registers the transaction routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", h.CreateTransaction)
		r.Get("/", h.ListTransactions)
		r.Get("/{transactionId}", h.GetTransaction)
		r.Put("/{transactionId}", h.UpdateTransaction)
		r.Delete("/{transactionId}", h.DeleteTransaction)
	})
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateTransaction: invalid body: %v", err))
		h.sendJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	h.Logger.Info("API", fmt.Sprintf("CreateTransaction: user=%s", requester(r)))

	created, err := h.Service.CreateTransaction(r.Context(), req)
	if err != nil {
		h.writeError(w, "CreateTransaction", err)
		return
	}

	h.sendJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "transactionId")

	tx, err := h.Service.GetTransaction(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetTransaction", err)
		return
	}
	if tx == nil {
		h.writeError(w, "GetTransaction", &transaction.NotFoundError{ID: id})
		return
	}

	h.sendJSON(w, http.StatusOK, tx)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Service.ListTransactions(r.Context())
	if err != nil {
		h.writeError(w, "ListTransactions", err)
		return
	}

	h.sendJSON(w, http.StatusOK, txs)
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "transactionId")

	var req models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("UpdateTransaction: invalid body for %s: %v", id, err))
		h.sendJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	h.Logger.Info("API", fmt.Sprintf("UpdateTransaction: transactionId=%s user=%s", id, requester(r)))

	updated, err := h.Service.UpdateTransaction(r.Context(), id, req)
	if err != nil {
		h.writeError(w, "UpdateTransaction", err)
		return
	}

	h.sendJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "transactionId")
	h.Logger.Info("API", fmt.Sprintf("DeleteTransaction: transactionId=%s user=%s", id, requester(r)))

	if err := h.Service.DeleteTransaction(r.Context(), id); err != nil {
		h.writeError(w, "DeleteTransaction", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Health(r.Context()); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Health: store unavailable: %v", err))
		h.sendJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("Store unavailable", err.Error()))
		return
	}
	h.sendJSON(w, http.StatusOK, utils.SuccessResponse("ok", map[string]string{"status": "UP"}))
}

// requester is the authenticated subject, or "anonymous" when auth is off.
func requester(r *http.Request) string {
	if uid := auth.UserID(r.Context()); uid != "" {
		return uid
	}
	return "anonymous"
}

// writeError maps service errors onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, transaction.ErrRuleViolation):
		h.Logger.Warn("API", fmt.Sprintf("%s: rejected: %v", op, err))
		h.sendJSON(w, http.StatusUnprocessableEntity, utils.ErrorResponse("Transaction rule violated", err.Error()))
	case errors.Is(err, transaction.ErrNotFound):
		h.Logger.Info("API", fmt.Sprintf("%s: %v", op, err))
		h.sendJSON(w, http.StatusNotFound, utils.ErrorResponse("Transaction not found", err.Error()))
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		h.sendJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal error", err.Error()))
	}
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, body interface{}) {
	if err := utils.WriteJSON(w, status, body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to encode response: %v", err))
	}
}

// RequestLogger logs method, path, status and latency of every request.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", status), time.Since(start).String())
		})
	}
}
