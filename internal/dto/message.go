package dto

import (
	"time"

	"courierhub/internal/domain"
)

type PostMessageRequest struct {
	Content string `json:"content"`
}

type MessageResponse struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"orderId"`
	SenderID   string    `json:"senderId"`
	SenderType string    `json:"senderType"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

func NewMessageResponse(m domain.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		OrderID:    m.OrderID,
		SenderID:   m.SenderID,
		SenderType: string(m.SenderType),
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}

func NewMessageListResponse(messages []domain.Message) []MessageResponse {
	resp := make([]MessageResponse, len(messages))
	for i, m := range messages {
		resp[i] = NewMessageResponse(m)
	}
	return resp
}
