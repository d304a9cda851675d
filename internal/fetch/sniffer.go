package fetch

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

// ContentSniffer detects image file extensions from downloaded bytes using
// stdlib content-type detection. It never touches the network, so tests can
// exercise the full allocation path offline.
type ContentSniffer struct{}

var _ interfaces.TypeSniffer = ContentSniffer{}

var extensionsByMIME = map[string]string{
	"image/png":    "png",
	"image/jpeg":   "jpg",
	"image/gif":    "gif",
	"image/webp":   "webp",
	"image/bmp":    "bmp",
	"image/avif":   "avif",
	"image/x-icon": "ico",
}

// Detect returns the extension for data, or ErrUnknownContentType when the
// bytes are not a recognized image format.
func (ContentSniffer) Detect(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}

	ext, ok := extensionsByMIME[mime]
	if !ok {
		return "", goerrors.Wrap(
			fmt.Errorf("%w: detected %q", ErrUnknownContentType, mime),
			CategoryFetch, "content sniffing failed").
			WithTextCode(sniffUnknownCode)
	}
	return ext, nil
}
