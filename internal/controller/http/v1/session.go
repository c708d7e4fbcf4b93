package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voice_conversion/internal/session"
)

const sessionKey = "session"

// sessionMiddleware attaches the caller's session, issuing a cookie for new ones.
func sessionMiddleware(reg *session.Registry, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(cookieName)

		s, created := reg.Acquire(id)
		if created {
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     cookieName,
				Value:    s.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		c.Set(sessionKey, s)
		c.Next()
	}
}

// uploadLimit caps request bodies at maxBytes.
func uploadLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// lastArchive reads the session's last archived object name under its lock.
func lastArchive(s *session.Session) string {
	s.Lock()
	defer s.Unlock()

	return s.LastArchive()
}

// snapshot reads session state under its lock.
func snapshot(s *session.Session) (modelName, identity string, output []byte) {
	s.Lock()
	defer s.Unlock()

	return s.ModelName(), s.ModelIdentity(), s.LastOutput()
}
