package payment

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	errors "github.com/veedsify/mightyshare-api/internal"
	"github.com/veedsify/mightyshare-api/internal/auth"
	"github.com/veedsify/mightyshare-api/internal/transport"
)

type ServiceAPI interface {
	OpenPayment(ctx context.Context, userID int64, dto *InitiatePaymentDTO) (*InitiatePaymentResponse, error)
	VerifyAndSettle(ctx context.Context, orderID string, userID int64) (*SettlementResult, error)
	VerifyAndSettleTopup(ctx context.Context, orderID string, userID int64) (*SettlementResult, error)
	SettleFromCallback(ctx context.Context, dto *CallbackDTO) (*CallbackResponse, error)
	GetPayment(orderID string, userID int64) (*Payment, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// InitiatePayment handles POST /api/v1/payments
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("InitiatePayment: user not found in context")
		h.HandleError(w, errors.ErrNotAuthenticated)
		return
	}

	var dto InitiatePaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("InitiatePayment: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.Service.OpenPayment(r.Context(), user.ID, &dto)
	if err != nil {
		h.Logger.Error("InitiatePayment: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("InitiatePayment: payment opened",
		"order_id", resp.OrderID,
		"user_id", user.ID,
		"amount", resp.Amount)

	h.WriteJSON(w, http.StatusOK, resp)
}

// VerifyPayment handles GET /api/v1/payments/{orderID}/verify
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, h.Service.VerifyAndSettle)
}

// VerifyTopup handles GET /api/v1/payments/{orderID}/verify-topup
func (h *Handler) VerifyTopup(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, h.Service.VerifyAndSettleTopup)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, settle func(context.Context, string, int64) (*SettlementResult, error)) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.ErrNotAuthenticated)
		return
	}

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		h.HandleError(w, errors.NewValidationError("order id is required", errors.ErrCodeValidationFailed))
		return
	}

	result, err := settle(r.Context(), orderID, user.ID)
	if err != nil {
		h.Logger.Error("VerifyPayment: service error",
			"error", err, "order_id", orderID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// GetPayment handles GET /api/v1/payments/{orderID}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.ErrNotAuthenticated)
		return
	}

	orderID := chi.URLParam(r, "orderID")
	p, err := h.Service.GetPayment(orderID, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}
