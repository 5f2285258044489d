package domain

import "time"

type Courier struct {
	ID         string
	UserID     string
	Name       string
	IsOnline   bool
	CurrentLat *float64
	CurrentLng *float64
	UpdatedAt  time.Time
}

const DefaultCourierName = "Courier"

func (c Courier) HasPosition() bool {
	return c.CurrentLat != nil && c.CurrentLng != nil
}

type User struct {
	ID        string
	Username  string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
