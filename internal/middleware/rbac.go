package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-reg-api/internal/models"
	appErrors "github.com/noah-isme/uni-reg-api/pkg/errors"
	"github.com/noah-isme/uni-reg-api/pkg/response"
)

// RequireCapability admits requests whose role carries the capability.
func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claims.Role.Can(capability) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCapabilityOrSelf admits requests whose role carries the capability,
// or student requests targeting their own student id in the :id path param.
func RequireCapabilityOrSelf(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Role.Can(capability) {
			c.Next()
			return
		}
		if claims.StudentID != "" && c.Param("id") == claims.StudentID {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireSelf admits only requests whose role carries the self-registration
// capability and whose :id path param matches the caller's student id.
func RequireSelf() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Role.Can(models.CapRegisterSelf) && claims.StudentID != "" && c.Param("id") == claims.StudentID {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

func claimsFrom(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
