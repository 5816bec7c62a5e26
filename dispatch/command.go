// Package dispatch turns inbound chat text into persisted, broadcastable records.
package dispatch

import (
	"groupchat/domain"
	"strings"
)

// commands are matched in this order, first prefix wins.
var commands = []struct {
	prefix string
	kind   domain.MessageType
}{
	{"@weather", domain.TypeWeather},
	{"@movie", domain.TypeMovie},
	{"@ai", domain.TypeAI},
	{"@news", domain.TypeNews},
	{"@music", domain.TypeMusic},
}

// Classify returns the command type of raw and the argument following the
// prefix. Anything that is not a command is plain text with raw as argument.
func Classify(raw string) (domain.MessageType, string) {
	for _, c := range commands {
		if strings.HasPrefix(raw, c.prefix) {
			return c.kind, strings.TrimSpace(strings.TrimPrefix(raw, c.prefix))
		}
	}
	return domain.TypeText, raw
}
