package domain

import "time"

type SenderType string

const (
	SenderCourier  SenderType = "courier"
	SenderCustomer SenderType = "customer"
)

func (s SenderType) IsValid() bool {
	return s == SenderCourier || s == SenderCustomer
}

type Message struct {
	ID         string
	OrderID    string
	SenderID   string
	SenderType SenderType
	Content    string
	IsRead     bool
	CreatedAt  time.Time
}
