package link

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	segmentJoinChat    = "joinchat"
	segmentAddStickers = "addstickers"
	segmentProxy       = "proxy"

	maxPort = 65535
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{5,}$`)
	postIDRegex   = regexp.MustCompile(`^[0-9]+$`)
	secretRegex   = regexp.MustCompile(`^[0-9A-Fa-f]{32}$`)
	ipv4Regex     = regexp.MustCompile(`^(\d{1,3})(\.\d{1,3}){3}$`)
	hostnameRegex = regexp.MustCompile(`^([A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?\.)*[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?$`)
)

// Classify maps a normalized path plus query parameters into a Target.
// It is a pure function: no I/O, no state.
func Classify(path string, query url.Values) (*Target, error) {
	segments := splitSegments(path)

	if len(segments) > 0 {
		switch segments[0] {
		case segmentJoinChat:
			return classifyJoinChat(segments)
		case segmentAddStickers:
			return classifyAddStickers(segments)
		case segmentProxy:
			return classifyProxy(query)
		}
	}

	// "+code" is the modern spelling of a join link.
	if len(segments) == 1 && strings.HasPrefix(segments[0], "+") {
		return classifyJoinChat([]string{segmentJoinChat, strings.TrimPrefix(segments[0], "+")})
	}

	switch len(segments) {
	case 1:
		if !usernameRegex.MatchString(segments[0]) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, segments[0])
		}

		return &Target{Kind: KindAccount, Identifier: segments[0]}, nil
	case 2:
		return classifyPost(segments)
	default:
		return nil, ErrInvalidUsername
	}
}

func splitSegments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}

	return strings.Split(path, "/")
}

func classifyJoinChat(segments []string) (*Target, error) {
	// Invite codes are opaque; anything non-empty goes through.
	if len(segments) != 2 || segments[1] == "" {
		return nil, ErrInvalidUsername
	}

	return &Target{Kind: KindJoinChat, Identifier: segments[1]}, nil
}

func classifyAddStickers(segments []string) (*Target, error) {
	if len(segments) != 2 || !usernameRegex.MatchString(segments[1]) {
		return nil, fmt.Errorf("%w: sticker set name", ErrInvalidUsername)
	}

	return &Target{Kind: KindAddStickers, Identifier: segments[1]}, nil
}

func classifyPost(segments []string) (*Target, error) {
	if !usernameRegex.MatchString(segments[0]) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, segments[0])
	}

	if !postIDRegex.MatchString(segments[1]) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPostID, segments[1])
	}

	postID, err := strconv.Atoi(segments[1])
	if err != nil || postID <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPostID, segments[1])
	}

	return &Target{Kind: KindPost, Identifier: segments[0], PostID: postID}, nil
}

func classifyProxy(query url.Values) (*Target, error) {
	server := query.Get("server")
	portStr := query.Get("port")
	secret := query.Get("secret")

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > maxPort {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPort, portStr)
	}

	if !secretRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}

	if !validProxyServer(server) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidServer, server)
	}

	return &Target{
		Kind:  KindProxy,
		Proxy: &ProxyParams{Server: server, Port: port, Secret: secret},
	}, nil
}

func validProxyServer(server string) bool {
	if server == "" {
		return false
	}

	if ipv4Regex.MatchString(server) {
		for _, octet := range strings.Split(server, ".") {
			n, err := strconv.Atoi(octet)
			if err != nil || n > 255 {
				return false
			}
		}

		return true
	}

	return hostnameRegex.MatchString(server)
}
