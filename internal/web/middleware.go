package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionKey = "sid"

// session pins every browser to a random session id kept in a cookie. The
// cookie is refreshed on each request so the idle TTL slides.
func (s *Server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(s.cookie)
		if err != nil || !validSessionID(sid) {
			sid = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.cookie, sid, int(s.ttl.Seconds()), "/", "", false, true)
		c.Set(sessionKey, sid)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(started),
		)
	}
}

func validSessionID(sid string) bool {
	_, err := uuid.Parse(sid)
	return err == nil
}
