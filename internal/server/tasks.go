package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"consistify/internal/models"
)

type taskRequest struct {
	Title        *string `json:"title"`
	Priority     *string `json:"priority"`
	StartDate    *string `json:"startDate"`
	EndDate      *string `json:"endDate"`
	ClearEndDate bool    `json:"clearEndDate"`
}

func parseOptionalDay(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := models.ParseDay(*raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseOptionalPriority(raw *string) (*models.Priority, error) {
	if raw == nil {
		return nil, nil
	}
	p, ok := models.ParsePriority(*raw)
	if !ok {
		return nil, fmt.Errorf("%w: unknown priority %q", models.ErrInvalidInput, *raw)
	}
	return &p, nil
}

// handleListTasks returns the caller's active tasks.
func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.store.ListActiveTasks(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

// handleCreateTask inserts a new task for the caller.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" || req.StartDate == nil || strings.TrimSpace(*req.StartDate) == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("title and start date are required"))
		return
	}

	start, err := parseOptionalDay(req.StartDate)
	if err != nil {
		s.fail(c, err)
		return
	}
	end, err := parseOptionalDay(req.EndDate)
	if err != nil {
		s.fail(c, err)
		return
	}
	priority, err := parseOptionalPriority(req.Priority)
	if err != nil {
		s.fail(c, err)
		return
	}

	task := models.Task{
		UserID:    currentUser(c),
		Title:     *req.Title,
		StartDate: *start,
		EndDate:   end,
	}
	if priority != nil {
		task.Priority = *priority
	}

	created, err := s.store.CreateTask(c.Request.Context(), task)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": created})
}

// handleUpdateTask edits title, priority or the date range of a task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	changes := models.TaskChanges{Title: req.Title, ClearEndDate: req.ClearEndDate}
	var err error
	if changes.Priority, err = parseOptionalPriority(req.Priority); err != nil {
		s.fail(c, err)
		return
	}
	if changes.StartDate, err = parseOptionalDay(req.StartDate); err != nil {
		s.fail(c, err)
		return
	}
	if changes.EndDate, err = parseOptionalDay(req.EndDate); err != nil {
		s.fail(c, err)
		return
	}

	task, err := s.store.UpdateTask(c.Request.Context(), currentUser(c), id, changes)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask retires a task. History referencing it is kept.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.RetireTask(c.Request.Context(), currentUser(c), id); err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
