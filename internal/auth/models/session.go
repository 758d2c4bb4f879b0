package models

import (
	"time"

	id "floodrelief/pkg/domain"
)

// Session is the identity context of one connected user. It is created by
// Login, handed to every core operation as an explicit argument, and removed
// by Logout. The zero value is the anonymous caller.
type Session struct {
	ID         id.SessionID  `json:"id"`
	AccountID  id.AccountID  `json:"account_id"`
	Login      string        `json:"login"`
	IsAdmin    bool          `json:"is_admin"`
	NationalID id.NationalID `json:"national_id"`
	Device     string        `json:"device,omitempty"`
	ClientIP   string        `json:"client_ip,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Anonymous is the session of an unauthenticated caller.
var Anonymous = Session{}

// IsAuthenticated reports whether the session belongs to a logged-in account.
func (s Session) IsAuthenticated() bool {
	return !s.ID.IsNil() && s.AccountID != 0
}
