package link

// Kind identifies what a t.me path points at.
type Kind string

const (
	KindAccount     Kind = "account"
	KindJoinChat    Kind = "joinchat"
	KindAddStickers Kind = "addstickers"
	KindPost        Kind = "post"
	KindProxy       Kind = "proxy"
)

// ProxyParams carries the validated parameters of a proxy link.
type ProxyParams struct {
	Server string
	Port   int
	Secret string
}

// Target is a classified, validated t.me link. Kind determines which of the
// remaining fields are populated: Identifier for everything but Proxy,
// PostID only for Post, Proxy only for Proxy.
type Target struct {
	Kind       Kind
	Identifier string
	PostID     int
	Proxy      *ProxyParams
}
