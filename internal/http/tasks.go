package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskflow/internal/domain"
	"taskflow/internal/service"
)

const dateLayout = "2006-01-02"

// taskRequest is shared by create and update. Absent fields stay nil.
type taskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	Completed   *bool   `json:"completed"`
	DueDate     *string `json:"dueDate"`
}

// parseDueDate accepts a calendar date or an RFC3339 timestamp. An empty string clears
// the due date.
func parseDueDate(raw *string) (due *time.Time, clearDue bool, err error) {
	if raw == nil {
		return nil, false, nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, true, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return &t, false, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, false, domain.Validation("dueDate must be YYYY-MM-DD or RFC3339")
	}
	t = t.UTC()
	return &t, false, nil
}

func priorityPtr(raw *string) *domain.Priority {
	if raw == nil {
		return nil
	}
	p := domain.Priority(*raw)
	return &p
}

func (h *Handler) bindTask(c *gin.Context) (*taskRequest, bool) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return nil, false
	}
	return &req, true
}

func (h *Handler) createTask(c *gin.Context) {
	req, ok := h.bindTask(c)
	if !ok {
		return
	}
	due, _, err := parseDueDate(req.DueDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	in := service.CreateTaskInput{
		Description: req.Description,
		Priority:    priorityPtr(req.Priority),
		Status:      req.Status,
		Completed:   req.Completed,
		DueDate:     due,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Task created successfully", task)
}

func (h *Handler) listTasks(c *gin.Context) {
	tasks, err := h.tasks.ListTasks(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, tasks, len(tasks))
}

func (h *Handler) getTask(c *gin.Context) {
	task, err := h.tasks.GetTask(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", task)
}

func (h *Handler) updateTask(c *gin.Context) {
	req, ok := h.bindTask(c)
	if !ok {
		return
	}
	due, clearDue, err := parseDueDate(req.DueDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), currentUser(c).ID, c.Param("id"), service.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     priorityPtr(req.Priority),
		Status:       req.Status,
		Completed:    req.Completed,
		DueDate:      due,
		ClearDueDate: clearDue,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Task updated successfully", task)
}

func (h *Handler) deleteTask(c *gin.Context) {
	if err := h.tasks.DeleteTask(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Task deleted successfully", nil)
}
