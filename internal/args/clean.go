package args

import "strings"

// Cleaner strips the protocol handler and navigation tag from a received token.
type Cleaner struct {
	// ProtocolHandler is the "<scheme>://" prefix, or "" when protocols are off.
	ProtocolHandler string

	// ArgumentName is the navigation tag, e.g. "nav:". A leading "/" is implied.
	ArgumentName string
}

// Clean applies the protocol step and then the tag step to token.
//
// Protocol step: when token starts with ProtocolHandler (case-insensitive) the
// prefix is removed along with one trailing "/", and the result is given a
// leading "/".
//
// Tag step: when token starts with "/"+ArgumentName (case-sensitive) that
// prefix is removed.
func (c Cleaner) Clean(token string) string {
	token = c.stripProtocol(token)
	return c.stripTag(token)
}

func (c Cleaner) stripProtocol(token string) string {
	handler := c.ProtocolHandler
	if handler == "" || len(token) < len(handler) {
		return token
	}
	if !strings.EqualFold(token[:len(handler)], handler) {
		return token
	}

	token = token[len(handler):]
	token = strings.TrimSuffix(token, "/")
	if !strings.HasPrefix(token, "/") {
		token = "/" + token
	}
	return token
}

func (c Cleaner) stripTag(token string) string {
	if c.ArgumentName == "" {
		return token
	}
	tag := c.ArgumentName
	if !strings.HasPrefix(tag, "/") {
		tag = "/" + tag
	}
	return strings.TrimPrefix(token, tag)
}

// CleanArgument is shorthand for Cleaner{protocolHandler, argumentName}.Clean(token).
func CleanArgument(token, protocolHandler, argumentName string) string {
	return Cleaner{ProtocolHandler: protocolHandler, ArgumentName: argumentName}.Clean(token)
}
