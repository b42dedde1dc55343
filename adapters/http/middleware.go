package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-editor/internal/domain/draft"
	"github.com/khoahotran/portfolio-editor/pkg/apperror"
	"github.com/khoahotran/portfolio-editor/pkg/auth"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

const (
	GinContextKeySubject = "subject"
)

func AuthMiddleware(jwtSvc *auth.JWTService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			log.Debug("Rejected token", zap.Error(err), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(GinContextKeySubject, claims.Subject)

		c.Next()
	}
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		appErr := toAppError(err)
		status := apperror.ToHTTPStatus(appErr)

		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err, zap.String("method", c.Request.Method), zap.String("path", c.FullPath()))
		} else {
			log.Debug("Request rejected", zap.Error(err), zap.Int("status", status), zap.String("path", c.FullPath()))
		}
		c.AbortWithStatusJSON(status, appErr.ToJSON())
	}
}

func toAppError(err error) *apperror.AppError {
	switch {
	case errors.Is(err, draft.ErrEntryLimit):
		return apperror.NewConflict("entry", err.Error(), err)
	case draft.IsRejectedUpload(err):
		return apperror.NewInvalidInput(err.Error(), err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NewInternal("unexpected error", err)
}
