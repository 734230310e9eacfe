package domain

import "errors"

var ErrPageReleased = errors.New("page image already released")

// PageImage is one rendered page held in memory as an encoded raster.
// The owner must call Close once the page has been analyzed.
type PageImage struct {
	// Index is the 1-based page number in the source document.
	Index  int
	Format string
	Width  int
	Height int

	data     []byte
	released bool
}

func NewPageImage(index int, format string, width, height int, data []byte) *PageImage {
	return &PageImage{Index: index, Format: format, Width: width, Height: height, data: data}
}

// Bytes returns the encoded raster.
func (p *PageImage) Bytes() ([]byte, error) {
	if p.released {
		return nil, ErrPageReleased
	}
	return p.data, nil
}

func (p *PageImage) Released() bool { return p.released }

// Close drops the raster. It is safe to call more than once.
func (p *PageImage) Close() error {
	p.data = nil
	p.released = true
	return nil
}

// ReleasePages closes every page in the slice.
func ReleasePages(pages []*PageImage) {
	for _, p := range pages {
		if p != nil {
			_ = p.Close()
		}
	}
}
