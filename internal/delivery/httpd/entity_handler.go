package httpd

import (
	"net/http"

	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) Submit(family workflow.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := authContext(w, r)
		if !ok {
			return
		}

		var req models.SubmitRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		entity, err := h.workflowService.Submit(r.Context(), ac, family, req.Payload)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeCreated(w, entity)
	}
}

func (h *Handler) List(family workflow.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := authContext(w, r)
		if !ok {
			return
		}

		filter := models.EntityFilter{OwnerID: r.URL.Query().Get("owner_id")}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := family.ParseStatus(raw)
			if err != nil {
				h.handleServiceError(w, r, err)
				return
			}
			filter.Status = status
		}

		page := getIntQueryParam(r, "page", 1)
		limit := getIntQueryParam(r, "limit", 20)

		response, err := h.workflowService.List(r.Context(), ac, family, filter, page, limit)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, response)
	}
}

func (h *Handler) Get(family workflow.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := authContext(w, r)
		if !ok {
			return
		}

		entity, err := h.workflowService.Get(r.Context(), ac, family, chi.URLParam(r, "id"))
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, entity)
	}
}

func (h *Handler) Resubmit(family workflow.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := authContext(w, r)
		if !ok {
			return
		}

		var req models.ResubmitRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		entity, err := h.workflowService.Resubmit(r.Context(), ac, family, chi.URLParam(r, "id"), req.Payload)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, entity)
	}
}

func (h *Handler) Remove(family workflow.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := authContext(w, r)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		if err := h.workflowService.Remove(r.Context(), ac, family, id); err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, map[string]interface{}{
			"id":      id,
			"message": "Deleted successfully",
		})
	}
}

func (h *Handler) Acknowledge(family workflow.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := authContext(w, r)
		if !ok {
			return
		}

		entity, err := h.workflowService.Acknowledge(r.Context(), ac, family, chi.URLParam(r, "id"))
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, entity)
	}
}

func (h *Handler) Review(family workflow.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := authContext(w, r)
		if !ok {
			return
		}

		var req models.ReviewRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		entity, err := h.workflowService.Review(r.Context(), ac, family, chi.URLParam(r, "id"), req.Decision, req.Reason)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, entity)
	}
}

func (h *Handler) Assign(family workflow.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := authContext(w, r)
		if !ok {
			return
		}

		var req models.AssignRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		entity, err := h.workflowService.Assign(r.Context(), ac, family, chi.URLParam(r, "id"), req.AssigneeID)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, entity)
	}
}

func (h *Handler) Complete(family workflow.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := authContext(w, r)
		if !ok {
			return
		}

		entity, err := h.workflowService.Complete(r.Context(), ac, family, chi.URLParam(r, "id"))
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, entity)
	}
}
