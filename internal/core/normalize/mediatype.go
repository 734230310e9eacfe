package normalize

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectMediaType guesses a media type from the filename extension and falls
// back to sniffing head. Office extensions are resolved from the built-in
// table because system MIME databases often lack them.
func DetectMediaType(filename string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" {
		for mt, officeExt := range officeExtensions {
			if officeExt == ext {
				return mt
			}
		}
		if mt := mime.TypeByExtension(ext); mt != "" {
			if parsed, _, err := mime.ParseMediaType(mt); err == nil {
				return parsed
			}
		}
	}
	mt, _, err := mime.ParseMediaType(http.DetectContentType(head))
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}
