package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	iconField = "icon"
	// formOverhead is the room left for text fields on top of the icon.
	formOverhead = 1 << 20
	// requestTimeout bounds the store work of a single request.
	requestTimeout = 5 * time.Second
)

// parseID reads an integer path parameter, answering 400 when it is not one.
func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRestaurantID})
		return 0, false
	}
	return id, true
}

// parseUpload parses a multipart or urlencoded body and returns the single
// optional icon file. A body that is not multipart simply has no icon.
func parseUpload(c *gin.Context, maxUpload int64) (*multipart.FileHeader, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload+formOverhead)

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request body is too large", errInvalidUpload)
		}
		return nil, fmt.Errorf("%w: %v", errInvalidUpload, err)
	}

	files := form.File[iconField]
	switch len(files) {
	case 0:
		return nil, nil
	case 1:
		return files[0], nil
	default:
		return nil, fmt.Errorf("%w: only one icon file is allowed", errInvalidUpload)
	}
}

// optionalForm returns nil when key was not sent at all.
func optionalForm(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok {
		return &v
	}
	return nil
}

func withMiddleware(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(mw)+1)
	chain = append(chain, mw...)
	return append(chain, h)
}
