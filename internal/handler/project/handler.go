package project

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	projectModel "github.com/zhouzirui/creator-surge/backend/internal/model/project"
	"github.com/zhouzirui/creator-surge/backend/internal/service/devforge"
	"github.com/zhouzirui/creator-surge/backend/pkg/utils"
)

// Handler exposes DevForge projects over HTTP.
type Handler struct {
	svc    *devforge.Service
	logger *zap.Logger
}

func New(svc *devforge.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)

		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Patch("/", h.handleUpdate)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)

			r.Get("/chats", h.handleListChats)
			r.Post("/chats", h.handleChat)

			r.Post("/deploy", h.handleDeploy)
			r.Get("/deployments", h.handleListDeployments)

			r.Get("/collaborators", h.handleListCollaborators)
			r.Post("/collaborators", h.handleAddCollaborator)
			r.Get("/activities", h.handleListActivities)
			r.Get("/comments", h.handleListComments)
			r.Post("/comments", h.handleAddComment)

			r.Get("/download", h.handleDownload)
		})
	})
}

func projectID(r *http.Request) string {
	return chi.URLParam(r, "projectID")
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in projectModel.Create
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.CreateProject(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListProjects(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProject(r.Context(), projectID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch projectModel.Update
	if err := utils.DecodeJSON(r, &patch); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.UpdateProject(r.Context(), projectID(r), patch)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProject(r.Context(), projectID(r)); err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Project deleted"})
}

func (h *Handler) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.svc.ListChats(r.Context(), projectID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, chats)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	turn, err := h.svc.Chat(r.Context(), projectID(r), payload.Message)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleDeploy(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Deploy(r.Context(), projectID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, d)
}

func (h *Handler) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListDeployments(r.Context(), projectID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) handleAddCollaborator(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.AddCollaborator(r.Context(), projectID(r), payload.Email, payload.Role)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, c)
}

func (h *Handler) handleListCollaborators(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListCollaborators(r.Context(), projectID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) handleListActivities(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListActivities(r.Context(), projectID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.AddComment(r.Context(), projectID(r), payload.Content)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, c)
}

func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListComments(r.Context(), projectID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, list)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.svc.Export(r.Context(), projectID(r))
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bundle.Filename))
	w.WriteHeader(http.StatusOK)
	if err := bundle.WriteZip(w); err != nil {
		h.logger.Error("write project archive failed", zap.String("project", projectID(r)), zap.Error(err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("project request failed", zap.Error(err))
	}
	utils.RespondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, devforge.ErrProjectNotFound),
		errors.Is(err, devforge.ErrNoGeneratedFiles):
		return http.StatusNotFound
	case errors.Is(err, devforge.ErrDuplicateCollaborator):
		return http.StatusConflict
	case errors.Is(err, devforge.ErrNameRequired),
		errors.Is(err, devforge.ErrInvalidProjectType),
		errors.Is(err, devforge.ErrInvalidStatus),
		errors.Is(err, devforge.ErrMessageRequired),
		errors.Is(err, devforge.ErrInvalidEmail),
		errors.Is(err, devforge.ErrInvalidRole),
		errors.Is(err, devforge.ErrCommentRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
