package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"accounts/internal/apperr"
	"accounts/internal/media"
)

// Multipart bodies above this are rejected before parsing.
const maxMultipartBody = 2*media.MaxImageSize + 1<<20

func parseMultipart(c *gin.Context, op string) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMultipartBody)
	if err := c.Request.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.NewValidation(op, "request body too large")
		}
		return apperr.NewValidation(op, "invalid multipart body").WithCause(err)
	}
	return nil
}

// formFile opens the uploaded file under field. A missing file yields nil
// without error; the returned closer is always safe to call.
func formFile(c *gin.Context, field string) (*media.File, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	return openFileHeader(header)
}

func openFileHeader(header *multipart.FileHeader) (*media.File, func(), error) {
	in, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &media.File{Name: header.Filename, Size: header.Size, Body: in}, func() { _ = in.Close() }, nil
}
