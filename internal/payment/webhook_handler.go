package payment

import (
	"encoding/json"
	"net/http"

	errors "github.com/veedsify/mightyshare-api/internal"
	"github.com/veedsify/mightyshare-api/internal/transport"
)

// WebhookHandler receives provider callbacks. The provider retries until it
// sees a 2xx, so replays of an already-settled payment must come back 200.
type WebhookHandler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// HandleCallback handles POST /api/v1/payments/callback
func (h *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	var dto CallbackDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("HandleCallback: invalid request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	h.Logger.Info("received payment callback",
		"transaction_id", dto.TransactionID,
		"reference", dto.Reference,
		"status", dto.Status,
		"amount", dto.Amount,
		"phone", dto.Customer.Phone)

	resp, err := h.Service.SettleFromCallback(r.Context(), &dto)
	if err != nil {
		h.Logger.Error("HandleCallback: settlement failed",
			"error", err,
			"transaction_id", dto.TransactionID,
			"phone", dto.Customer.Phone)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("payment callback settled",
		"transaction_id", dto.TransactionID,
		"user_id", resp.User.ID)

	h.WriteJSON(w, http.StatusOK, resp)
}
