package domain

import "time"

// UserSession is the single canonical session row for a user identity.
type UserSession struct {
	UserID     string
	SessionID  string
	DeviceInfo string
	IPAddress  string
	CreatedAt  time.Time
}

// SessionData is the payload stored in the generic sessions table.
type SessionData struct {
	UserID          string `json:"userId"`
	Username        string `json:"username"`
	CourierName     string `json:"courierName"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	// Superseded marks a session replaced by a later login for the same user.
	Superseded bool `json:"superseded,omitempty"`
}

type Session struct {
	ID     string
	Data   SessionData
	Expire time.Time
}

func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.Expire)
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID    string
	Username  string
	Name      string
	SessionID string
}
