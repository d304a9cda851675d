package interfaces

import "context"

// Fetcher downloads the bytes behind a remote URL. Implementations wrap
// transport failures with go-errors categories so callers can classify the
// failure (timeout, HTTP status, network) without depending on the transport
// library directly.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TypeSniffer detects the file extension for a blob of downloaded bytes.
// It exists as a separate capability so test suites can substitute a fake
// without network access.
type TypeSniffer interface {
	// Detect returns the extension (without a leading dot) for the supplied
	// data, or an error when the content type cannot be determined.
	Detect(data []byte) (string, error)
}

// AssetWriter persists downloaded asset bytes under a local filename.
type AssetWriter interface {
	Write(ctx context.Context, filename string, data []byte) error
}
