package middleware

import (
	"net/http"
	"strings"

	"pms/constants"
	"pms/errors"
	"pms/response"
	"pms/services"
	"pms/services/logger"
	"pms/types"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the actor from the bearer token and, when roles are given,
// requires one of them.
func AuthMiddleware(secret string, roles ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		actor, err := services.ActorFromToken(tokenString, secret)
		if err != nil {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		if len(roles) > 0 {
			hasRole := false
			for _, role := range roles {
				if role == actor.Role {
					hasRole = true
					break
				}
			}
			if !hasRole {
				response.Forbidden(c)
				c.Abort()
				return
			}
		}

		c.Set(constants.ContextKeyActor, actor)
		c.Set(constants.ContextKeyRole, actor.Role)
		c.Next()
	}
}

// ActorFrom returns the actor stored by AuthMiddleware.
func ActorFrom(c *gin.Context) (types.Actor, bool) {
	v, ok := c.Get(constants.ContextKeyActor)
	if !ok {
		return types.Actor{}, false
	}
	actor, ok := v.(types.Actor)
	return actor, ok
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeValidation, errors.ErrCodeRequiredField, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeUnauthorized, errors.ErrCodeInvalidToken, errors.ErrCodeMissingToken:
		return http.StatusUnauthorized
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConflict, errors.ErrCodeDBDuplicate:
		return http.StatusConflict
	case errors.ErrCodeState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders the last error attached with c.Error.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		if appErr := errors.GetAppError(err); appErr != nil {
			status := StatusFor(appErr.Code)
			if status == http.StatusInternalServerError {
				log.Error("%s %s request=%s: %v", c.Request.Method, c.FullPath(), c.Writer.Header().Get(constants.HeaderRequestID), err)
			}
			response.Error(c, status, string(appErr.Code), appErr.Message)
			return
		}

		log.Error("%s %s request=%s: %v", c.Request.Method, c.FullPath(), c.Writer.Header().Get(constants.HeaderRequestID), err)
		response.ServerError(c)
	}
}
