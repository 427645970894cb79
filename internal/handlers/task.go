package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"tasklist/internal/auth"
	dom "tasklist/internal/domain"
	"tasklist/internal/dto"
	"tasklist/internal/repo"
	"tasklist/internal/service"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	svc          *service.TaskService
	exposeErrors bool
}

func NewTaskHandler(svc *service.TaskService, exposeErrors bool) *TaskHandler {
	return &TaskHandler{svc: svc, exposeErrors: exposeErrors}
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task description is required"})
		return
	}

	t, err := h.svc.Create(c.Request.Context(), auth.UserIDFromContext(c), req.Description, req.DueDate.Ptr())
	if err != nil {
		if errors.Is(err, service.ErrEmptyDescription) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		internalError(c, h.exposeErrors, err)
		return
	}

	c.JSON(http.StatusCreated, taskToResponse(t))
}

// List godoc
// @Summary      List the caller's tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        sort  query     string  false  "due_date to sort by due date, nulls last"
// @Success      200   {array}   dto.TaskResponse
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	sortByDue := c.Query("sort") == "due_date"
	list, err := h.svc.List(c.Request.Context(), auth.UserIDFromContext(c), sortByDue)
	if err != nil {
		internalError(c, h.exposeErrors, err)
		return
	}
	c.JSON(http.StatusOK, tasksToResponses(list))
}

// GetByID godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), auth.UserIDFromContext(c), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		internalError(c, h.exposeErrors, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// Update godoc
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int  true  "Task ID"
// @Param        body  body      dto.UpdateTaskRequest  true  "Partial update"
// @Success      200   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch := repo.TaskPatch{
		Description: req.Description,
		Completed:   req.Completed,
	}
	if req.DueDate.Present() {
		patch.SetDueDate = true
		patch.DueDate = req.DueDate.Ptr()
	}
	t, err := h.svc.Update(c.Request.Context(), auth.UserIDFromContext(c), id, patch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, service.ErrNoFields), errors.Is(err, service.ErrEmptyDescription):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			internalError(c, h.exposeErrors, err)
		}
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  dto.DeleteTaskResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), auth.UserIDFromContext(c), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		internalError(c, h.exposeErrors, err)
		return
	}
	c.JSON(http.StatusOK, dto.DeleteTaskResponse{Message: "task deleted"})
}

// Complete godoc
// @Summary      Mark a task as completed
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.Complete(c.Request.Context(), auth.UserIDFromContext(c), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		internalError(c, h.exposeErrors, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// Search godoc
// @Summary      Search tasks by description
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        q    query     string  true  "Search query"
// @Success      200  {array}   dto.TaskResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /tasks/search [get]
func (h *TaskHandler) Search(c *gin.Context) {
	list, err := h.svc.Search(c.Request.Context(), auth.UserIDFromContext(c), c.Query("q"))
	if err != nil {
		internalError(c, h.exposeErrors, err)
		return
	}
	c.JSON(http.StatusOK, tasksToResponses(list))
}

// Overdue godoc
// @Summary      List overdue tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   dto.TaskResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /tasks/overdue [get]
func (h *TaskHandler) Overdue(c *gin.Context) {
	list, err := h.svc.Overdue(c.Request.Context(), auth.UserIDFromContext(c))
	if err != nil {
		internalError(c, h.exposeErrors, err)
		return
	}
	c.JSON(http.StatusOK, tasksToResponses(list))
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func taskToResponse(t dom.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Description: t.Description,
		DueDate:     dto.NewDueDate(t.DueDate),
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tasksToResponses(list []dom.Task) []dto.TaskResponse {
	out := make([]dto.TaskResponse, len(list))
	for i := range list {
		out[i] = taskToResponse(list[i])
	}
	return out
}
