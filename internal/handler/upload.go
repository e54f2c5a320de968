package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"storycraft/internal/model"
	"storycraft/pkg/logger"

	"github.com/gin-gonic/gin"
)

const uploadField = "story_file"

// readUpload returns the text of the optional story_file upload. A missing
// file or one that is not valid UTF-8 yields "" so the typed prompt is used.
func readUpload(c *gin.Context, maxBytes int64) (string, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return "", nil
	}

	fh, err := c.FormFile(uploadField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", model.NewValidationError("unreadable upload", err)
	}

	if !strings.EqualFold(filepath.Ext(fh.Filename), ".txt") {
		return "", model.NewValidationError("only .txt files can be uploaded", nil)
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", model.NewValidationError(fmt.Sprintf("upload is larger than %d bytes", maxBytes), nil)
	}

	f, err := fh.Open()
	if err != nil {
		return "", model.NewValidationError("unreadable upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", model.NewValidationError("unreadable upload", err)
	}
	if !utf8.Valid(data) {
		logger.Warnf("Ignoring upload %q: not valid UTF-8", fh.Filename)
		return "", nil
	}
	return string(data), nil
}

// bindCreateRequest reads a JSON body or a form post with an optional upload.
func bindCreateRequest(c *gin.Context, maxUpload int64) (*model.CreateStoryRequest, error) {
	var req model.CreateStoryRequest
	if err := c.ShouldBind(&req); err != nil {
		return nil, model.NewValidationError("malformed request", err)
	}

	file, err := readUpload(c, maxUpload)
	if err != nil {
		return nil, err
	}
	if file != "" {
		req.FileContent = file
	}
	return &req, nil
}
