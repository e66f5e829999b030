package wallet

import (
	"net/http"

	errors "github.com/veedsify/mightyshare-api/internal"
	"github.com/veedsify/mightyshare-api/internal/auth"
	"github.com/veedsify/mightyshare-api/internal/transport"
)

type ServiceAPI interface {
	GetWallet(userID int64) (*Account, []*Transaction, error)
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

// GetWallet handles GET /wallet. It returns the caller's account and
// recent ledger entries.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.ErrNotAuthenticated)
		return
	}

	account, transactions, err := h.Service.GetWallet(user.ID)
	if err != nil {
		if err == ErrAccountNotFound {
			h.HandleError(w, errors.ErrAccountNotFound)
			return
		}
		h.Logger.Error("GetWallet: service error", "error", err, "user_id", user.ID)
		h.HandleError(w, errors.NewInternalError("failed to get wallet", err))
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account":      account,
		"transactions": transactions,
	})
}
