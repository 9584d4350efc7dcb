package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"consistify/internal/models"
)

type journalRequest struct {
	Date  string       `json:"date"`
	Focus *string      `json:"focus"`
	Mood  *models.Mood `json:"mood"`
	Notes *string      `json:"notes"`
}

// handleTodaySummary recomputes and returns the current UTC day.
func (s *Server) handleTodaySummary(c *gin.Context) {
	sum, err := s.summary.ComputeSummary(c.Request.Context(), currentUser(c), models.Today())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"summary": sum})
}

// handleSummaryRange returns stored summaries without recomputing them.
func (s *Server) handleSummaryRange(c *gin.Context) {
	rawStart, rawEnd := c.Query("start"), c.Query("end")
	if rawStart == "" || rawEnd == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("start and end dates are required"))
		return
	}
	start, err := models.ParseDay(rawStart)
	if err != nil {
		s.fail(c, err)
		return
	}
	end, err := models.ParseDay(rawEnd)
	if err != nil {
		s.fail(c, err)
		return
	}
	if end.Before(start) {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("end date precedes start date"))
		return
	}

	summaries, err := s.store.ListSummaries(c.Request.Context(), currentUser(c), start, end)
	if err != nil {
		s.fail(c, err)
		return
	}
	if summaries == nil {
		summaries = []models.DailySummary{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"summaries": summaries})
}

// handleSummaryDetails returns the audit snapshot of one of the caller's summaries.
func (s *Server) handleSummaryDetails(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sum, err := s.store.GetSummary(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if sum.UserID != currentUser(c) {
		s.fail(c, fmt.Errorf("%w: summary belongs to another user", models.ErrForbidden))
		return
	}

	logs, err := s.store.AuditLogs(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if logs == nil {
		logs = []models.TaskAuditLog{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"summary": sum, "tasks": logs})
}

// handleUpdateJournal sets focus, mood or notes of a day.
func (s *Server) handleUpdateJournal(c *gin.Context) {
	var req journalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	day, err := models.ParseDay(req.Date)
	if err != nil {
		s.fail(c, err)
		return
	}

	sum, err := s.summary.UpdateJournal(c.Request.Context(), currentUser(c), day, models.Journal{
		Focus: req.Focus,
		Mood:  req.Mood,
		Notes: req.Notes,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"summary": sum})
}

// handleStreak reports the carried streak next to the legacy scan.
func (s *Server) handleStreak(c *gin.Context) {
	through, err := models.ParseDay(c.Query("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	report, err := s.summary.Streak(c.Request.Context(), currentUser(c), through)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"streak": report})
}
