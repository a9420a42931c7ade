package link

import (
	"fmt"
	"net/url"
	"strings"
)

const canonicalHost = "t.me"

// hostAliases are hosts accepted on input and rewritten to t.me.
var hostAliases = map[string]bool{
	"t.me":            true,
	"www.t.me":        true,
	"telegram.me":     true,
	"www.telegram.me": true,
}

// Normalize reduces a free-form t.me link to a canonical relative path (no
// leading or trailing slash) plus its query parameters. The input may lack a
// scheme or carry a copy-pasted "t.me/" prefix inside the path itself; both
// are repaired before the canonical URL is re-parsed and verified.
func Normalize(raw string) (string, url.Values, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, ErrInvalidAddress
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrInvalidAddress, raw)
	}

	if !hostAliases[strings.ToLower(u.Host)] {
		return "", nil, ErrInvalidAddress
	}

	path := strings.Trim(u.Path, "/")

	// Defend against double-pasted input like "t.me/t.me/durov".
	for strings.HasPrefix(path, canonicalHost+"/") {
		path = strings.TrimPrefix(path, canonicalHost+"/")
	}

	canonical, err := url.Parse("https://" + canonicalHost + "/" + path + "?" + u.RawQuery)
	if err != nil || canonical.Host != canonicalHost {
		return "", nil, ErrInvalidAddress
	}

	return strings.Trim(canonical.Path, "/"), canonical.Query(), nil
}
