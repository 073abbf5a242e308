package webserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// issueJWT mints a bearer token for a profile. sid identifies the login
// session and scopes the view-notification guard.
func issueJWT(profileID, sessionID string, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": profileID,
		"sid": sessionID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString(secret)
}

// JWTMiddleware sets "uid" and "sid" from a valid bearer token. A token
// query parameter is accepted for WebSocket upgrades, where browsers cannot
// set headers.
func JWTMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = h[7:]
		} else {
			raw = c.Query("token")
		}
		if raw == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) { return secret, nil })
		if err != nil || !tok.Valid {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims := tok.Claims.(jwt.MapClaims)
		uid, _ := claims["sub"].(string)
		sid, _ := claims["sid"].(string)
		if uid == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("uid", uid)
		c.Set("sid", sid)
		c.Next()
	}
}
