package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CookieName  = "session"
	NicknameKey = "nickname"
)

// Session resolves the caller's nickname from the session cookie or a Bearer
// header. Unauthenticated requests go through untouched, handlers decide.
func Session(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.Request)
		if token == "" {
			if cookie, err := c.Cookie(CookieName); err == nil {
				token = cookie
			}
		}
		if token != "" {
			if nickname, err := issuer.Validate(token); err == nil {
				c.Set(NicknameKey, nickname)
			}
		}
		c.Next()
	}
}

// Nickname returns the authenticated nickname set by Session.
func Nickname(c *gin.Context) (string, bool) {
	nickname := c.GetString(NicknameKey)
	return nickname, nickname != ""
}

func bearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
