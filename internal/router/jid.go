package router

import "regexp"

// jidPattern approximates the RFC 6122 localpart@domainpart[/resourcepart]
// grammar closely enough to reject obviously malformed conference names.
// No corpus library covers XMPP JID grammar, so this one piece is
// standard-library regex rather than a pulled-in dependency.
var jidPattern = regexp.MustCompile(`^[^"&'/:<>@\s]+@[A-Za-z0-9.-]+(/[^\s]+)?$`)

// validJID reports whether name is syntactically valid as an addressable
// conference identifier.
func validJID(name string) bool {
	if name == "" || len(name) > 3071 {
		return false
	}
	return jidPattern.MatchString(name)
}
