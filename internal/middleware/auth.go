package middleware

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/auth"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

// RequireAuth validates the bearer token, loads the user and places it in
// the context under "user". Deactivated accounts are rejected.
func RequireAuth(db *sql.DB, tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Требуется авторизация"})
			return
		}

		userID, err := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Недействительный токен"})
			return
		}

		user, err := store.GetUser(c.Request.Context(), db, userID)
		if err != nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Недействительный токен"})
			return
		}

		c.Set("user", user)
		c.Next()
	}
}
