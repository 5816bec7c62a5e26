// Package domain contains core concepts of the chat system.
// This file defines presence entries.
// No runtime, network, or UI logic should be added here.
package domain

// Presence is one entry of the user list shown to clients.
// The list is sourced from the account store, not from live connections.
type Presence struct {
	Nickname string
	Online   bool
}

// OnlineNicknames keeps the nicknames currently flagged online.
func OnlineNicknames(users []Presence) []string {
	res := make([]string, 0, len(users))
	for _, u := range users {
		if u.Online {
			res = append(res, u.Nickname)
		}
	}
	return res
}
