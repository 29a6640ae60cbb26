package httpd

import (
	"net/http"

	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateActor(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}

	var req models.CreateActorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor, err := h.actorService.CreateActor(r.Context(), ac, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, actor)
}

func (h *Handler) GetCurrentActor(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}

	actor, err := h.actorService.GetActor(r.Context(), ac, ac.CurrentActor().ID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, actor)
}

func (h *Handler) GetActor(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}

	actor, err := h.actorService.GetActor(r.Context(), ac, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, actor)
}

func (h *Handler) GrantRole(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}

	var req models.GrantRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	grant, err := h.actorService.GrantRole(r.Context(), ac, chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, grant)
}

func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}

	req := models.GrantRoleRequest{
		Role:  chi.URLParam(r, "role"),
		Scope: r.URL.Query().Get("scope"),
	}
	if err := h.actorService.RevokeRole(r.Context(), ac, chi.URLParam(r, "id"), &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Role revoked successfully",
	})
}
