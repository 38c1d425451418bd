package handlers

import (
	"net/http"

	"projectflow/internal/models"
	"projectflow/internal/repository"
	"projectflow/internal/service"

	"github.com/gin-gonic/gin"
)

//
// PROJECTS
//

// ListProjects supports ?status= and ?member= filters.
func (h *Handler) ListProjects(c *gin.Context) {
	filter := repository.ProjectFilter{
		Status: models.ProjectStatus(c.Query("status")),
		Member: c.Query("member"),
	}

	projects, err := h.Projects.List(c.Request.Context(), filter)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) GetProject(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	p, err := h.Projects.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateProject(c *gin.Context) {
	var in service.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	p, err := h.Projects.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var in service.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	h.respondProject(c)(h.Projects.Update(c.Request.Context(), actor(c), id, in))
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.Projects.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type statusRequest struct {
	Status models.ProjectStatus `json:"status"`
}

func (h *Handler) SetProjectStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	h.respondProject(c)(h.Projects.SetStatus(c.Request.Context(), actor(c), id, req.Status))
}

//
// KANBAN
//

type taskRequest struct {
	Content     string `json:"content"`
	MilestoneID *int   `json:"milestoneId"`
}

func (h *Handler) AddTask(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	h.respondProject(c)(h.Projects.AddTask(c.Request.Context(), actor(c), id, req.Content, req.MilestoneID))
}

type moveRequest struct {
	From models.Bucket `json:"from"`
	To   models.Bucket `json:"to"`
}

func (h *Handler) MoveTask(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	taskID, ok := intParam(c, "taskId")
	if !ok {
		return
	}

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	h.respondProject(c)(h.Projects.MoveTask(c.Request.Context(), actor(c), id, taskID, req.From, req.To))
}

func (h *Handler) RemoveTask(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	taskID, ok := intParam(c, "taskId")
	if !ok {
		return
	}

	h.respondProject(c)(h.Projects.RemoveTask(c.Request.Context(), actor(c), id, taskID))
}

//
// TIMELINE
//

func (h *Handler) AddMilestone(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var in service.MilestoneInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	h.respondProject(c)(h.Projects.AddMilestone(c.Request.Context(), actor(c), id, in))
}

type weightRequest struct {
	Weight *int `json:"weight"`
}

func (h *Handler) SetMilestoneWeight(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := intParam(c, "milestoneId")
	if !ok {
		return
	}

	var req weightRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Weight == nil {
		badRequest(c, "weight is required")
		return
	}

	h.respondProject(c)(h.Projects.SetMilestoneWeight(c.Request.Context(), actor(c), id, milestoneID, *req.Weight))
}

func (h *Handler) RemoveMilestone(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := intParam(c, "milestoneId")
	if !ok {
		return
	}

	h.respondProject(c)(h.Projects.RemoveMilestone(c.Request.Context(), actor(c), id, milestoneID))
}

//
// HISTORY / FILES
//

type historyRequest struct {
	Action string `json:"action"`
}

func (h *Handler) AddHistory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	h.respondProject(c)(h.Projects.AddHistory(c.Request.Context(), actor(c), id, req.Action))
}

func (h *Handler) AddFile(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var in service.FileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	h.respondProject(c)(h.Projects.AddFile(c.Request.Context(), actor(c), id, in))
}

// respondProject writes the updated project or the mutation error.
func (h *Handler) respondProject(c *gin.Context) func(*models.Project, error) {
	return func(p *models.Project, err error) {
		if err != nil {
			h.renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
