package settlement

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/veedsify/mightyshare-api/internal"
	"github.com/veedsify/mightyshare-api/internal/auth"
	"github.com/veedsify/mightyshare-api/internal/transport"
)

type ServiceAPI interface {
	RequestSettlement(userID int64, dto *RequestSettlementDTO) (*Settlement, error)
	ListForUser(userID int64) ([]*Settlement, error)
	ListAll(limit, offset int) ([]*Settlement, error)
	Approve(ctx context.Context, settlementID, approverID int64) (*Settlement, error)
	Reject(settlementID, rejectedBy int64, dto *RejectSettlementDTO) (*Settlement, error)
}

type Handler struct {
	*transport.BaseHandler
	Service    ServiceAPI
	Authorizer auth.PermissionChecker
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, authorizer auth.PermissionChecker) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Authorizer:  authorizer,
	}
}

// RequestSettlement handles POST /api/v1/settlements
func (h *Handler) RequestSettlement(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.ErrNotAuthenticated)
		return
	}

	var dto RequestSettlementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	settlement, err := h.Service.RequestSettlement(user.ID, &dto)
	if err != nil {
		h.Logger.Error("RequestSettlement: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, settlement)
}

// ListSettlements handles GET /api/v1/settlements. Users see their own
// requests; back-office permissions unlock the full list.
func (h *Handler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.ErrNotAuthenticated)
		return
	}

	if h.Authorizer.CanViewAllSettlements(user.Permissions) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		settlements, err := h.Service.ListAll(limit, offset)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{"settlements": settlements})
		return
	}

	settlements, err := h.Service.ListForUser(user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"settlements": settlements})
}

// ApproveSettlement handles PATCH /api/v1/settlements/{id}/approve
func (h *Handler) ApproveSettlement(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.ErrNotAuthenticated)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid settlement id", errors.ErrCodeValidationFailed))
		return
	}

	settlement, err := h.Service.Approve(r.Context(), id, user.ID)
	if err != nil {
		h.Logger.Error("ApproveSettlement: service error", "error", err, "settlement_id", id, "approver_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, settlement)
}

// RejectSettlement handles PATCH /api/v1/settlements/{id}/reject
func (h *Handler) RejectSettlement(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.ErrNotAuthenticated)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid settlement id", errors.ErrCodeValidationFailed))
		return
	}

	var dto RejectSettlementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	settlement, err := h.Service.Reject(id, user.ID, &dto)
	if err != nil {
		h.Logger.Error("RejectSettlement: service error", "error", err, "settlement_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, settlement)
}
