package normalize

import "fmt"

type unsupportedError struct{ mediaType string }

func (e unsupportedError) Error() string {
	if e.mediaType == "" {
		return "media type not declared"
	}
	return fmt.Sprintf("media type %q is not accepted", e.mediaType)
}

func errUnsupported(mediaType string) error { return unsupportedError{mediaType: mediaType} }
