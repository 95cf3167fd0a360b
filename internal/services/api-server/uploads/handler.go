package uploads

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/NordCoder/Libra/internal/services/api-server/httpx"
	"github.com/gin-gonic/gin"
)

// Saver is what the upload routes need from a Store.
type Saver interface {
	Save(fh *multipart.FileHeader, subdir, field string) (string, error)
	Remove(url string) error
	MaxBytes() int64
}

// Receive stores the multipart file in field under subdir. It answers 400/413/500 itself and
// returns ok=false when the handler should stop.
func Receive(c *gin.Context, s Saver, field, subdir string) (string, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.MaxBytes()+(1<<20))
	fh, err := c.FormFile(field)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpx.AbortWithError(c, http.StatusRequestEntityTooLarge, "File too large", err)
			return "", false
		}
		httpx.AbortWithError(c, http.StatusBadRequest, "No file uploaded", nil)
		return "", false
	}
	url, err := s.Save(fh, subdir, field)
	switch {
	case errors.Is(err, ErrTooLarge):
		httpx.AbortWithError(c, http.StatusRequestEntityTooLarge, "File too large", err)
		return "", false
	case err != nil:
		httpx.AbortWithError(c, http.StatusInternalServerError, "Failed to store file", err)
		return "", false
	}
	return url, true
}
