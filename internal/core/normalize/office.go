package normalize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/scope"
)

var officeExtensions = map[string]string{
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   ".docx",
	"application/vnd.ms-excel":                                                  ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
	"application/vnd.ms-powerpoint":                                             ".ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
}

// OfficeExtension picks the extension the converter sees: the uploaded
// filename's when it has one, otherwise one derived from the media type.
func OfficeExtension(filename, mediaType string) string {
	if ext := strings.ToLower(filepath.Ext(filepath.Base(filename))); ext != "" && ext != "." {
		return ext
	}
	return officeExtensions[domain.ValidationInput{MediaType: mediaType}.NormalizedMediaType()]
}

// normalizeOffice converts inside a scoped temp dir that is removed on every
// exit path, converter failures included.
func (n *Normalizer) normalizeOffice(ctx context.Context, in domain.ValidationInput) ([]*domain.PageImage, error) {
	var pages []*domain.PageImage
	err := scope.Use(scope.TempDir("docgate-office-"), func(dir string) error {
		input := filepath.Join(dir, "input"+OfficeExtension(in.Filename, in.MediaType))
		if err := os.WriteFile(input, in.Data, 0o600); err != nil {
			return fmt.Errorf("materialize input: %w", err)
		}
		if strings.EqualFold(filepath.Ext(input), ".xlsx") {
			if err := preflightSpreadsheet(input); err != nil {
				return err
			}
		}

		pdfPath, err := n.converter.ConvertToPDF(ctx, input, dir)
		if err != nil {
			return fmt.Errorf("convert to pdf: %w", err)
		}
		rendered, err := n.renderer.RenderPDFFile(ctx, pdfPath, n.maxPages)
		if err != nil {
			return fmt.Errorf("render converted pdf: %w", err)
		}
		if len(rendered) == 0 {
			return fmt.Errorf("render converted pdf: %w", errNoPages)
		}
		pages = rendered
		return nil
	})
	if err != nil {
		domain.ReleasePages(pages)
		return nil, domain.WrapError(domain.ErrConversionFailure, "normalize office document", err)
	}
	return pages, nil
}

// preflightSpreadsheet rejects OOXML workbooks that do not open or have no
// sheets before the converter is started.
func preflightSpreadsheet(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open spreadsheet: %w", err)
	}
	sheets := f.GetSheetList()
	if cerr := f.Close(); cerr != nil {
		err = cerr
	}
	if len(sheets) == 0 {
		return errors.Join(errors.New("spreadsheet has no sheets"), err)
	}
	return err
}
