package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"consistify/internal/models"
)

type toggleRequest struct {
	TaskID      int64  `json:"taskId"`
	Date        string `json:"date"`
	IsCompleted *bool  `json:"isCompleted"`
}

// handleGetDailyStatus reconciles the requested day and lists its task rows.
func (s *Server) handleGetDailyStatus(c *gin.Context) {
	day, err := models.ParseDay(c.Query("date"))
	if err != nil {
		s.fail(c, err)
		return
	}

	statuses, err := s.summary.DailyStatuses(c.Request.Context(), currentUser(c), day)
	if err != nil {
		s.fail(c, err)
		return
	}
	if statuses == nil {
		statuses = []models.DailyTaskStatus{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"date": models.FormatDay(day), "statuses": statuses})
}

// handleToggleStatus marks one task done or undone for a day.
func (s *Server) handleToggleStatus(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.TaskID == 0 || req.Date == "" || req.IsCompleted == nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("missing required fields"))
		return
	}
	day, err := models.ParseDay(req.Date)
	if err != nil {
		s.fail(c, err)
		return
	}

	status, err := s.summary.ToggleStatus(c.Request.Context(), currentUser(c), req.TaskID, day, *req.IsCompleted)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": status})
}
