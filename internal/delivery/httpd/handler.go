package httpd

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/NourhenHamza/TalentGo-sub001/internal/auth"
	"github.com/NourhenHamza/TalentGo-sub001/internal/service"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	workflowService     service.WorkflowService
	actorService        service.ActorService
	notificationService service.NotificationService
	reportFileService   service.ReportFileService
	health              HealthChecker
	maxUpload           int64
	logger              zerolog.Logger
}

func NewHandler(
	workflowService service.WorkflowService,
	actorService service.ActorService,
	notificationService service.NotificationService,
	reportFileService service.ReportFileService,
	health HealthChecker,
	maxUpload int64,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		workflowService:     workflowService,
		actorService:        actorService,
		notificationService: notificationService,
		reportFileService:   reportFileService,
		health:              health,
		maxUpload:           maxUpload,
		logger:              logger,
	}
}

// RegisterRoutes mounts the API. protect wraps every /api/v1 route, normally
// authentication followed by rate limiting.
func (h *Handler) RegisterRoutes(router chi.Router, protect ...func(http.Handler) http.Handler) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(protect...)

		api.Route("/subjects", h.entityRoutes(workflow.FamilySubject))
		api.Route("/reports", h.entityRoutes(workflow.FamilyReport))
		api.Route("/defenses", h.entityRoutes(workflow.FamilyDefense))

		api.Post("/files", h.UploadReportFile)
		// path must match service.ReportFileLinkPrefix
		api.Get("/files/*", h.DownloadReportFile)

		api.Route("/actors", func(r chi.Router) {
			r.Post("/", h.CreateActor)
			r.Get("/me", h.GetCurrentActor)
			r.Get("/{id}", h.GetActor)
			r.Post("/{id}/roles", h.GrantRole)
			r.Delete("/{id}/roles/{role}", h.RevokeRole)
		})

		api.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Get("/unread-count", h.UnreadCount)
			r.Post("/read-all", h.MarkAllNotificationsRead)
			r.Post("/{id}/read", h.MarkNotificationRead)
		})
	})
}

func (h *Handler) entityRoutes(family workflow.Family) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/", h.Submit(family))
		r.Get("/", h.List(family))
		r.Get("/{id}", h.Get(family))
		r.Put("/{id}", h.Resubmit(family))
		r.Delete("/{id}", h.Remove(family))
		r.Post("/{id}/acknowledge", h.Acknowledge(family))
		r.Post("/{id}/review", h.Review(family))
		r.Post("/{id}/assign", h.Assign(family))
		r.Post("/{id}/complete", h.Complete(family))
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "pfe-workflow",
		"timestamp": time.Now().UTC(),
	}

	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			h.logger.Error().Err(err).Msg("Health check failed")
			response["status"] = "unhealthy"
			response["database"] = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
		response["database"] = "ok"
	}

	writeJSON(w, http.StatusOK, response)
}

// authContext fetches the caller, writing 401 when the request is anonymous.
func authContext(w http.ResponseWriter, r *http.Request) (auth.AuthContext, bool) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, kindUnauthenticated, "authentication required", nil)
		return nil, false
	}
	return ac, true
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, string(workflow.KindValidation), "Invalid request body", nil)
		return false
	}
	return true
}
