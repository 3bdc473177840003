package app

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genocem/Edumond-AI-portal/internal/metrics"
)

// basicCredentials guards an operator endpoint. An empty password disables the check.
type basicCredentials struct {
	Username string
	Password string
}

func (b basicCredentials) enabled() bool { return b.Password != "" }

func (b basicCredentials) match(user, pass string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(b.Username)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(b.Password)) == 1
	return userMatch && passMatch
}

// basicAuthMiddleware enforces Basic Auth on operator endpoints such as
// /metrics. Rejections use the API error body and are counted.
func basicAuthMiddleware(realm string, creds basicCredentials, m *metrics.Metrics) gin.HandlerFunc {
	challenge := `Basic realm="` + realm + `"`
	return func(c *gin.Context) {
		if !creds.enabled() {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if ok && creds.match(user, pass) {
			c.Next()
			return
		}

		m.RecordHTTPError(codeUnauthorized, c.FullPath())
		c.Header("WWW-Authenticate", challenge)
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
			Error: "authentication required",
			Code:  codeUnauthorized,
		})
	}
}
