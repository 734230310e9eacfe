package normalize

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kirillkom/docgate/internal/core/domain"
)

// MaxImagePixels bounds the raster size accepted for decoding. Headers are
// checked first so a tiny file cannot declare a huge canvas.
const MaxImagePixels = 64 << 20

// normalizeImage fully decodes the raster, which doubles as the integrity
// check, and re-encodes it as PNG so every page reaches OCR in one format.
func (n *Normalizer) normalizeImage(in domain.ValidationInput) ([]*domain.PageImage, error) {
	if len(in.Data) == 0 {
		return nil, domain.WrapError(domain.ErrCorruptInput, "decode image", fmt.Errorf("empty image"))
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(in.Data))
	if err != nil {
		return nil, domain.WrapError(domain.ErrCorruptInput, "decode image header", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > MaxImagePixels {
		return nil, domain.WrapError(domain.ErrCorruptInput, "decode image header",
			fmt.Errorf("%s image declares %dx%d pixels, limit is %d", format, cfg.Width, cfg.Height, MaxImagePixels))
	}

	img, format, err := image.Decode(bytes.NewReader(in.Data))
	if err != nil {
		return nil, domain.WrapError(domain.ErrCorruptInput, "decode image", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, domain.WrapError(domain.ErrCorruptInput, "decode image", fmt.Errorf("%s image has no pixels", format))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, domain.WrapError(domain.ErrCorruptInput, "encode image", err)
	}
	n.logger.Debug("image_normalized", "format", format, "width", bounds.Dx(), "height", bounds.Dy())
	return []*domain.PageImage{domain.NewPageImage(1, "png", bounds.Dx(), bounds.Dy(), buf.Bytes())}, nil
}
