package thrift

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
	ListPackages() ([]*Package, error)
	CreatePackage(dto *CreatePackageDTO) (*Package, error)
	UpdatePackage(packageID int64, dto *UpdatePackageDTO) (*Package, error)
	Subscribe(userID, packageID int64) (*Subscription, error)
	ActiveSubscription(userID int64) (*Subscription, error)
	RegistrationFee(userID int64) int64
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

// GetPackages handles GET /packages
func (h *Handler) GetPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.Service.ListPackages()
	if err != nil {
		h.Logger.Error("GetPackages: failed to list packages", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to get packages")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"packages": packages,
	})
}

// CreatePackage handles POST /packages (admin only)
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var dto CreatePackageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	pkg, err := h.Service.CreatePackage(&dto)
	if err != nil {
		if err == ErrPackageNameTaken {
			h.HandleError(w, errors.NewConflictError("package name already exists", errors.ErrCodePackageNameTaken))
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, pkg)
}

// UpdatePackage handles PATCH /packages/{id} (admin only)
func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	packageID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid package id", errors.ErrCodeValidationFailed))
		return
	}

	var dto UpdatePackageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	pkg, err := h.Service.UpdatePackage(packageID, &dto)
	if err != nil {
		if err == ErrPackageNotFound {
			h.HandleError(w, errors.ErrPackageNotFound)
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, pkg)
}

// Subscribe handles POST /packages/{id}/subscribe
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.ErrNotAuthenticated)
		return
	}

	packageID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid package id", errors.ErrCodeValidationFailed))
		return
	}

	sub, err := h.Service.Subscribe(user.ID, packageID)
	if err != nil {
		switch err {
		case ErrPackageNotFound:
			h.HandleError(w, errors.ErrPackageNotFound)
		case ErrPackageInactive:
			h.HandleError(w, errors.NewBusinessError("thrift package is not active", errors.ErrCodePackageNotFound))
		default:
			h.Logger.Error("Subscribe: service error", "error", err, "user_id", user.ID, "package_id", packageID)
			h.HandleError(w, errors.NewInternalError("failed to subscribe", err))
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, sub)
}
