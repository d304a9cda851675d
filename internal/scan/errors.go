package scan

import "errors"

var (
	ErrNotMarkdown = errors.New("scan: document is not valid markdown text")
	ErrPathEscapes = errors.New("scan: path escapes the corpus root")
)
