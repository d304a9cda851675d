package scan

import (
	"bytes"

	"github.com/adrg/frontmatter"
)

type frontMatterEnvelope struct {
	Title string `yaml:"title"`
}

// ParseTitle extracts the frontmatter title from the provided source bytes.
// Documents without frontmatter return an empty title and no error; the title
// only labels documents in rendered summaries and never affects scanning.
func ParseTitle(source []byte) (string, error) {
	var meta frontMatterEnvelope

	if _, err := frontmatter.Parse(bytes.NewReader(source), &meta); err != nil {
		return "", err
	}
	return meta.Title, nil
}
