package enrich

import (
	"html"
	"regexp"
)

// mentionRegex matches word-bounded @handle mentions. The leading group keeps
// mentions inside words or emails untouched.
var mentionRegex = regexp.MustCompile(`(^|[^\w@])@([A-Za-z0-9_]{5,32})\b`)

// LinkifyMentions HTML-escapes the text and rewrites @handle mentions into
// in-app resolve links.
func LinkifyMentions(text string) string {
	if text == "" {
		return ""
	}

	escaped := html.EscapeString(text)

	return mentionRegex.ReplaceAllString(escaped, `$1<a href="tg://resolve?domain=$2">@$2</a>`)
}
