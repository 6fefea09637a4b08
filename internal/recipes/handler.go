package recipes

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/receptor-app/receptor/pkg/handlers"
	"github.com/receptor-app/receptor/pkg/middleware"
	"github.com/receptor-app/receptor/pkg/routes"
)

// Handler provides the finalize endpoint and finalized recipe lookups.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "recipes"),
	}
}

// Routes returns the recipe lookup route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/recipes",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/ingredients", Handler: h.Ingredients},
		},
	}
}

// FinalizeRoutes returns the job finalization route group, mounted under
// the jobs prefix.
func (h *Handler) FinalizeRoutes() routes.Group {
	return routes.Group{
		Prefix: "/jobs",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/{id}/finalize", Handler: h.Finalize},
		},
	}
}

type finalizeRequest struct {
	MealSlot string `json:"meal_slot"`
}

// Finalize commits a reviewed job into a permanent recipe.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.Owner(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrUnauthenticated)
		return
	}

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	var req finalizeRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Finalize(r.Context(), owner, jobID, req.MealSlot)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a finalized recipe.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	recipe, err := h.sys.Find(r.Context(), id, owner)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, recipe)
}

// Ingredients returns a recipe's structured ingredient rows.
func (h *Handler) Ingredients(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	items, err := h.sys.Ingredients(r.Context(), id, owner)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

func (h *Handler) ownerAndID(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	owner, ok := middleware.Owner(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, middleware.ErrUnauthenticated)
		return "", uuid.Nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return "", uuid.Nil, false
	}

	return owner, id, true
}
