// Package access evaluates configured blacklist and whitelist policy for
// classified link targets. Blacklist is checked first and is a hard deny;
// whitelist is a soft deny and only consulted when non-empty.
package access

import (
	"strconv"
	"strings"

	"github.com/lueurxax/tgway/internal/link"
)

// Decision is the outcome of a policy check. It is derived per request and
// never stored.
type Decision int

const (
	Allowed Decision = iota
	Blacklisted
	NotWhitelisted
)

func (d Decision) String() string {
	switch d {
	case Blacklisted:
		return "blacklisted"
	case NotWhitelisted:
		return "not_whitelisted"
	default:
		return "allowed"
	}
}

type Gate struct {
	blacklist map[string]bool
	whitelist map[string]bool
}

func New(blacklist, whitelist []string) *Gate {
	return &Gate{
		blacklist: toSet(blacklist),
		whitelist: toSet(whitelist),
	}
}

func toSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))

	for _, key := range keys {
		key = strings.ToLower(strings.Trim(strings.TrimSpace(key), "/"))
		if key != "" {
			set[key] = true
		}
	}

	return set
}

// Check evaluates blacklist then whitelist for the target. Proxy targets are
// exempt: they carry no persistent identity to block.
func (g *Gate) Check(target *link.Target) Decision {
	if target.Kind == link.KindProxy {
		return Allowed
	}

	full, channel := keys(target)

	if g.matches(g.blacklist, full, channel) {
		return Blacklisted
	}

	if len(g.whitelist) == 0 {
		return Allowed
	}

	if g.matches(g.whitelist, full, channel) {
		return Allowed
	}

	return NotWhitelisted
}

// matches tests the full key and, when meaningful, the bare channel key, so a
// channel-level entry covers all of its posts.
func (g *Gate) matches(set map[string]bool, full, channel string) bool {
	if set[full] {
		return true
	}

	return channel != "" && set[channel]
}

// keys computes the case-folded lookup key for the target plus the bare
// channel key when the target is nested under one. The literal joinchat and
// addstickers segments never act as a channel: blocking "joinchat" must not
// block every invite link.
func keys(target *link.Target) (full string, channel string) {
	id := strings.ToLower(target.Identifier)

	switch target.Kind {
	case link.KindJoinChat:
		return "joinchat/" + id, ""
	case link.KindAddStickers:
		return "addstickers/" + id, ""
	case link.KindPost:
		return id + "/" + strconv.Itoa(target.PostID), id
	default:
		return id, ""
	}
}
