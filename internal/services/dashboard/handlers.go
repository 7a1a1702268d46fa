package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tx-code/subwatch/internal/domain/schedule"
	"github.com/tx-code/subwatch/internal/services/monitor"
)

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.Status())
}

func (s *Server) checkNow(c *gin.Context) {
	ok, err := s.monitor.CheckNow(c.Request.Context())
	switch {
	case errors.Is(err, monitor.ErrCheckInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		s.log.Error("manual check", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "check failed unexpectedly"})
	default:
		c.JSON(http.StatusOK, gin.H{"success": ok})
	}
}

func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.State())
}

func (s *Server) putConfig(c *gin.Context) {
	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.UpdateConfig(updates); err != nil {
		var verr *schedule.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Issues})
			return
		}
		s.log.Error("update config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist configuration"})
		return
	}
	c.JSON(http.StatusOK, s.store.State())
}

const defaultHistoryLimit = 100

func (s *Server) getHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	rows, err := s.history.Recent(limit)
	if err != nil {
		s.log.Error("read history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "observations": rows})
}

// Target is an entry of the built-in community catalog offered by the
// dashboard's URL picker.
type Target struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

var predefinedTargets = []Target{
	{"Reddit - CNC", "https://www.reddit.com/r/CNC/", "CNC machining and machine tools"},
	{"Reddit - 3D Printing", "https://www.reddit.com/r/3Dprinting/", "3D printing projects and techniques"},
	{"Reddit - Programming", "https://www.reddit.com/r/programming/", "Programming discussion"},
	{"Reddit - Technology", "https://www.reddit.com/r/technology/", "Tech news and discussion"},
	{"Reddit - Python", "https://www.reddit.com/r/Python/", "The Python programming language"},
	{"Reddit - Machine Learning", "https://www.reddit.com/r/MachineLearning/", "Machine learning and AI"},
}

func (s *Server) getTargets(c *gin.Context) {
	c.JSON(http.StatusOK, predefinedTargets)
}
