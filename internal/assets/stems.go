package assets

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	slug "github.com/goliatone/go-slug"
	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// validExtension accepts short alphanumeric suffixes; anything else (signed
// URL fragments, version tags) is treated as "no extension" and resolved by
// content sniffing after download.
var validExtension = regexp.MustCompile(`^[a-zA-Z0-9]{1,5}$`)

// deriveName derives the candidate filename stem and extension for a remote
// URL. The stem comes from the URL's last path segment with query and
// fragment stripped; when the segment is empty or unusable, a deterministic
// short hash of the full URL is used instead so the same URL always derives
// the same fallback.
func deriveName(rawURL string) (stem, ext string) {
	base := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		segment := parsed.Path
		if unescaped, err := url.PathUnescape(segment); err == nil {
			segment = unescaped
		}
		base = path.Base(segment)
		if base == "." || base == "/" {
			base = ""
		}
	}

	if dot := strings.LastIndex(base, "."); dot > 0 {
		candidate := base[dot+1:]
		if validExtension.MatchString(candidate) {
			ext = normalizeExtension(candidate)
			base = base[:dot]
		}
	}

	stem = normalizeStem(base)
	if stem == "" {
		stem = fallbackStem(rawURL)
	}
	return stem, ext
}

func normalizeStem(base string) string {
	normalized, err := slug.Normalize(base)
	if err != nil {
		return ""
	}
	return normalized
}

// normalizeExtension lowercases the extension and prefers "jpg" over "jpeg"
// so URL-derived and sniffed extensions agree.
func normalizeExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ext == "jpeg" {
		return "jpg"
	}
	return ext
}

// fallbackStem derives a deterministic stem from the URL itself. The hashid
// derivation is stable across runs and processes, which keeps fallback
// filenames reproducible when allocator state is persisted.
func fallbackStem(rawURL string) string {
	uid, err := hashid.NewUUID(rawURL,
		hashid.WithHashAlgorithm(hashid.SHA256),
		hashid.WithNormalization(true),
	)
	if err != nil || uid == uuid.Nil {
		uid = uuid.NewSHA1(uuid.NameSpaceURL, []byte(rawURL))
	}
	return "asset-" + strings.SplitN(uid.String(), "-", 2)[0]
}
