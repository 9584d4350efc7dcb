package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves an exported dashboard build when one is configured.
// Unknown non-API paths fall back to index.html so client routes resolve.
func (s *Server) mountStatic() {
	dir := s.opts.StaticDir
	if dir == "" {
		s.logger.Info("static directory not configured; API only mode")
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing; API only mode", slog.String("path", dir))
		return
	}

	indexPath := filepath.Join(dir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found", slog.String("path", indexPath))
		return
	}

	fileServer := http.FileServer(gin.Dir(dir, false))
	s.engine.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		if path != "/" {
			candidate := filepath.Join(dir, filepath.Clean(path))
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				fileServer.ServeHTTP(c.Writer, c.Request)
				return
			}
		}
		c.File(indexPath)
	})
}
