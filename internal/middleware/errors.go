package middleware

import (
	"errors"
	"net/http"

	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondWithError maps the service error taxonomy onto HTTP responses.
func RespondWithError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validationErr *custom_error.ValidationError
		conflictErr   *custom_error.ConflictError
		notFoundErr   *custom_error.NotFoundError
		forbiddenErr  *custom_error.ForbiddenError
	)

	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationErr.Message, "details": details(validationErr.Details)})
	case errors.As(err, &conflictErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": conflictErr.Message, "details": details(conflictErr.Details)})
	case errors.As(err, &notFoundErr):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &forbiddenErr):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": forbiddenErr.Error()})
	default:
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "details": []string{}})
	}
}

func details(d []string) []string {
	if d == nil {
		return []string{}
	}
	return d
}
