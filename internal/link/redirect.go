package link

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Redirect is the computed handoff for a classified target: the native
// deep link the client intercepts plus the public URLs enrichment reads.
type Redirect struct {
	// Location is the tg:// URI the landing page redirects to.
	Location string
	// PreviewURL is the public t.me page scraped for metadata. Empty for
	// Proxy targets, which carry no preview.
	PreviewURL string
	// EmbedURL is the embeddable post page, set only for Post targets.
	EmbedURL string
	// SitePath is the canonical path of this target on the deployment's own
	// host, e.g. "/durov/42" or "/proxy?server=...".
	SitePath string
}

// Build is a pure mapping from target to redirect; it never fails for a
// target produced by Classify.
func Build(t *Target) Redirect {
	switch t.Kind {
	case KindJoinChat:
		return Redirect{
			Location:   "tg://join?invite=" + url.QueryEscape(t.Identifier),
			PreviewURL: "https://t.me/joinchat/" + url.PathEscape(t.Identifier),
			SitePath:   "/joinchat/" + url.PathEscape(t.Identifier),
		}
	case KindAddStickers:
		return Redirect{
			Location:   "tg://addstickers?set=" + url.QueryEscape(t.Identifier),
			PreviewURL: "https://t.me/addstickers/" + t.Identifier,
			SitePath:   "/addstickers/" + t.Identifier,
		}
	case KindPost:
		post := strconv.Itoa(t.PostID)

		return Redirect{
			Location:   fmt.Sprintf("tg://resolve?domain=%s&post=%s", t.Identifier, post),
			PreviewURL: "https://t.me/" + t.Identifier,
			EmbedURL:   fmt.Sprintf("https://t.me/%s/%s?embed=1", t.Identifier, post),
			SitePath:   "/" + t.Identifier + "/" + post,
		}
	case KindProxy:
		params := proxyQuery(t.Proxy)

		return Redirect{
			Location: "tg://proxy?" + params,
			SitePath: "/proxy?" + params,
		}
	default:
		return Redirect{
			Location:   "tg://resolve?domain=" + t.Identifier,
			PreviewURL: "https://t.me/" + t.Identifier,
			SitePath:   "/" + t.Identifier,
		}
	}
}

func proxyQuery(p *ProxyParams) string {
	var sb strings.Builder

	sb.WriteString("server=")
	sb.WriteString(url.QueryEscape(p.Server))
	sb.WriteString("&port=")
	sb.WriteString(strconv.Itoa(p.Port))
	sb.WriteString("&secret=")
	sb.WriteString(url.QueryEscape(p.Secret))

	return sb.String()
}
