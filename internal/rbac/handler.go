package rbac

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/keygate/keygate/internal/platform/httpx"
	"github.com/keygate/keygate/internal/shared"
)

// Handler exposes permission management, grant/assignment operations and
// effective-set introspection.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac Middleware) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountPermissionRoutes registers /permissions management routes.
func (h *Handler) MountPermissionRoutes(r chi.Router) {
	r.With(h.rbac.RequireAnyPermission("permissions.read")).Get("/", h.listPermissions)
	r.With(h.rbac.RequireAnyPermission("permissions.read")).Get("/{id}", h.getPermission)
	r.With(h.rbac.RequireAnyPermission("permissions.create")).Post("/", h.createPermission)
	r.With(h.rbac.RequireAnyPermission("permissions.update")).Put("/{id}", h.updatePermission)
	r.With(h.rbac.RequireAnyPermission("permissions.delete")).Delete("/{id}", h.deletePermission)
}

// MountUserGrantRoutes registers grant, assignment and introspection routes
// under /users/{userID}.
func (h *Handler) MountUserGrantRoutes(r chi.Router) {
	r.With(h.rbac.RequireAnyPermission("permissions.read")).Get("/{id}/permissions", h.userPermissions)
	r.With(h.rbac.RequireAnyPermission("roles.read")).Get("/{id}/roles", h.userRoles)
	r.With(h.rbac.RequireAnyPermission("permissions.assign")).Post("/{id}/permissions/{permissionID}", h.grantPermission)
	r.With(h.rbac.RequireAnyPermission("permissions.assign")).Delete("/{id}/permissions/{permissionID}", h.revokePermission)
	r.With(h.rbac.RequireAnyPermission("roles.assign")).Post("/{id}/roles/{roleID}", h.assignRole)
	r.With(h.rbac.RequireAnyPermission("roles.assign")).Delete("/{id}/roles/{roleID}", h.removeRole)
}

type permissionRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type permissionResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toPermissionResponse(p Permission) permissionResponse {
	return permissionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, toPermissionResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	p, err := h.service.GetPermission(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponse(p))
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p, err := h.service.CreatePermission(r.Context(), req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPermissionResponse(p))
}

func (h *Handler) updatePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req permissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p, err := h.service.UpdatePermission(r.Context(), id, req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponse(p))
}

func (h *Handler) deletePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.DeletePermission(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	names, err := h.service.EffectivePermissions(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string][]string{"permissions": names})
}

func (h *Handler) userRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	names, err := h.service.EffectiveRoles(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string][]string{"roles": names})
}

func (h *Handler) grantPermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	permID, ok2 := pathID(r, "permissionID")
	if !ok || !ok2 {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.GrantToUser(r.Context(), userID, permID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokePermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	permID, ok2 := pathID(r, "permissionID")
	if !ok || !ok2 {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.RevokeFromUser(r.Context(), userID, permID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	roleID, ok2 := pathID(r, "roleID")
	if !ok || !ok2 {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.AssignRole(r.Context(), userID, roleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	roleID, ok2 := pathID(r, "roleID")
	if !ok || !ok2 {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.RemoveRole(r.Context(), userID, roleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
