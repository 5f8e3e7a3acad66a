// Package args prepares command-line tokens for the trip from a follower
// process to the leader, and cleans them again once they arrive.
//
// Outgoing tokens are normalized so that the receiver can tell a protocol
// invocation ("myapp://open/item") from a plain argument ("/open/item").
// Incoming tokens are cleaned by stripping the protocol handler prefix and an
// optional navigation tag.
package args

import (
	"regexp"
	"strings"
)

// protocolPattern matches tokens of the form "<scheme>://" where the scheme is
// at least three word characters or hyphens.
var protocolPattern = regexp.MustCompile(`^[\w-]{3,}://`)

// IsProtocolToken reports whether s looks like a URI with a custom scheme.
func IsProtocolToken(s string) bool {
	return protocolPattern.MatchString(s)
}

// Normalize returns raw with empty entries dropped and every remaining token
// either left as a protocol token or given a leading "/".
// Order is preserved. The input slice is not modified.
func Normalize(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, token := range raw {
		if token == "" {
			continue
		}
		out = append(out, normalizeToken(token))
	}
	return out
}

func normalizeToken(token string) string {
	if IsProtocolToken(token) || strings.HasPrefix(token, "/") {
		return token
	}
	return "/" + token
}
