package common

import (
	"errors"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
)

// ErrMissingFile is returned when the multipart field is absent
var ErrMissingFile = errors.New("missing uploaded file")

// ReadFormFile reads a multipart file field and returns its client name and content
func ReadFormFile(ctx echo.Context, field string) (string, []byte, error) {
	file, err := ctx.FormFile(field)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMissingFile, err)
	}

	src, err := file.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open uploaded file %s: %w", file.Filename, err)
	}
	defer func() {
		_ = src.Close()
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read uploaded file %s: %w", file.Filename, err)
	}
	return file.Filename, data, nil
}
