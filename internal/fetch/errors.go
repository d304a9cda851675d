package fetch

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrTimeout            = errors.New("fetch: request timed out")
	ErrHTTPStatus         = errors.New("fetch: unexpected http status")
	ErrNetwork            = errors.New("fetch: network failure")
	ErrUnknownContentType = errors.New("fetch: content is not a recognized image format")
)

// CategoryFetch tags transport failures so callers can classify them without
// depending on the HTTP client library.
var CategoryFetch = goerrors.Category("fetch")

const (
	fetchTimeoutCode = "FETCH_TIMEOUT"
	fetchHTTPCode    = "FETCH_HTTP_ERROR"
	fetchNetworkCode = "FETCH_NETWORK_ERROR"
	sniffUnknownCode = "SNIFF_UNKNOWN_TYPE"
)

// Reason maps a fetch failure onto the wire-level failure taxonomy used in
// summary records: timeout, http-error, or network-error.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrHTTPStatus):
		return "http-error"
	case errors.Is(err, ErrNetwork):
		return "network-error"
	default:
		return err.Error()
	}
}
