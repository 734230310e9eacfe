package usecase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/normalize"
)

// LoadLocalInput reads a document from disk for the CLI and MCP surfaces.
// An empty mediaType is detected from the name and content. maxBytes <= 0
// disables the size check.
func LoadLocalInput(path, mediaType string, maxBytes int64) (domain.ValidationInput, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ValidationInput{}, domain.WrapError(domain.ErrNotFound, "open local document", err)
		}
		return domain.ValidationInput{}, domain.WrapError(domain.ErrInvalidInput, "open local document", err)
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.ValidationInput{}, domain.WrapError(domain.ErrInvalidInput, "read local document", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return domain.ValidationInput{}, domain.WrapError(domain.ErrInvalidInput, "read local document",
			fmt.Errorf("%s exceeds %d bytes", filepath.Base(path), maxBytes))
	}

	if mediaType == "" {
		mediaType = normalize.DetectMediaType(path, data[:min(len(data), 512)])
	}
	return domain.ValidationInput{
		ID:        uuid.NewString(),
		Data:      data,
		MediaType: mediaType,
		Filename:  filepath.Base(path),
	}, nil
}
