package enrich

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinkifyMentions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain mention",
			in:   "news by @examplechan daily",
			want: `news by <a href="tg://resolve?domain=examplechan">@examplechan</a> daily`,
		},
		{
			name: "mention at start",
			in:   "@examplechan posts news",
			want: `<a href="tg://resolve?domain=examplechan">@examplechan</a> posts news`,
		},
		{
			name: "email untouched",
			in:   "write to someone@example.com",
			want: "write to someone@example.com",
		},
		{
			name: "short handle untouched",
			in:   "ping @ab please",
			want: "ping @ab please",
		},
		{
			name: "text is escaped",
			in:   "<b>bold</b> via @examplechan",
			want: `&lt;b&gt;bold&lt;/b&gt; via <a href="tg://resolve?domain=examplechan">@examplechan</a>`,
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, LinkifyMentions(tt.in))
		})
	}
}
