package complaint

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/veedsify/mightyshare-api/internal"
	"github.com/veedsify/mightyshare-api/internal/auth"
	"github.com/veedsify/mightyshare-api/internal/transport"
)

type ServiceAPI interface {
	Open(userID int64, dto *OpenComplaintDTO) (*Complaint, error)
	ListForUser(userID int64) ([]*Complaint, error)
	ListAll(limit, offset int) ([]*Complaint, error)
	Resolve(complaintID, resolvedBy int64, dto *ResolveComplaintDTO) (*Complaint, error)
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

// OpenComplaint handles POST /api/v1/complaints
func (h *Handler) OpenComplaint(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.ErrNotAuthenticated)
		return
	}

	var dto OpenComplaintDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	complaint, err := h.Service.Open(user.ID, &dto)
	if err != nil {
		h.Logger.Error("OpenComplaint: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, complaint)
}

// ListComplaints handles GET /api/v1/complaints
func (h *Handler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.ErrNotAuthenticated)
		return
	}

	if h.Authorizer.CanResolveComplaints(user.Permissions) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		complaints, err := h.Service.ListAll(limit, offset)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{"complaints": complaints})
		return
	}

	complaints, err := h.Service.ListForUser(user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"complaints": complaints})
}

// ResolveComplaint handles PATCH /api/v1/complaints/{id}/resolve
func (h *Handler) ResolveComplaint(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.ErrNotAuthenticated)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid complaint id", errors.ErrCodeValidationFailed))
		return
	}

	var dto ResolveComplaintDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	complaint, err := h.Service.Resolve(id, user.ID, &dto)
	if err != nil {
		h.Logger.Error("ResolveComplaint: service error", "error", err, "complaint_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, complaint)
}
