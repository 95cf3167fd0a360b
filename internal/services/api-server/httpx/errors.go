package httpx

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// AbortWithError writes the API error envelope and stops the handler chain.
// err is attached to the gin context so the access log picks it up.
func AbortWithError(c *gin.Context, code int, message string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
		_ = c.Error(err)
	}
	body := gin.H{
		"status": "error",
		"error":  message,
		"detail": detail,
		"code":   code,
	}
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		body["traceId"] = sc.TraceID().String()
	}
	c.AbortWithStatusJSON(code, body)
}

// ValidationFailed is the 400 shape for field-level input errors.
func ValidationFailed(c *gin.Context, errs []string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": errs})
}

// StoreError maps repository sentinels onto statuses; anything else is a 500 logged at error level.
func StoreError(c *gin.Context, l *zap.Logger, what string, err error) {
	switch {
	case errors.Is(err, pg.ErrNotFound):
		AbortWithError(c, http.StatusNotFound, what+" not found", nil)
	case errors.Is(err, pg.ErrConflict):
		AbortWithError(c, http.StatusConflict, what+" already exists", err)
	case errors.Is(err, pg.ErrConstraint):
		AbortWithError(c, http.StatusBadRequest, "invalid reference", err)
	default:
		l.Error("store error", zap.String("path", c.FullPath()), zap.String("entity", what), zap.Error(err))
		AbortWithError(c, http.StatusInternalServerError, "Database error", err)
	}
}

// ParamID parses a positive int64 path parameter, answering 400 when it is malformed.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		AbortWithError(c, http.StatusBadRequest, "Invalid ID format", nil)
		return 0, false
	}
	return id, true
}

// QueryInt returns the integer query parameter or def when it is missing or not a positive number.
func QueryInt(c *gin.Context, name string, def int) int {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// BindJSON decodes the body or answers 400.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		AbortWithError(c, http.StatusBadRequest, "Invalid JSON", err)
		return false
	}
	return true
}
