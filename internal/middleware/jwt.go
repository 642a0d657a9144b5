package middleware

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated admin.
const ContextUserKey = "currentUser"

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// AdminLoader resolves the admin named by a token.
type AdminLoader interface {
	FindByID(ctx context.Context, id string) (*models.Admin, error)
}

// Protect requires a valid bearer token and a live, active admin behind it.
func Protect(tokens TokenValidator, admins AdminLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		admin, err := admins.FindByID(c.Request.Context(), claims.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "User not found"))
			} else {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user"))
			}
			c.Abort()
			return
		}
		if !admin.IsActive {
			response.Error(c, appErrors.Clone(appErrors.ErrInactiveAccount, "Account is disabled."))
			c.Abort()
			return
		}

		c.Set(ContextUserKey, admin)
		c.Next()
	}
}

// CurrentAdmin returns the admin stored by Protect.
func CurrentAdmin(c *gin.Context) *models.Admin {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	admin, ok := value.(*models.Admin)
	if !ok {
		return nil
	}
	return admin
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
