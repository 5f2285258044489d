package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courierhub/internal/domain"
	"courierhub/internal/errors"
)

const (
	maxContentLength  = 4000
	maxSenderIDLength = 64
)

type MessageRepository interface {
	Insert(ctx context.Context, msg domain.Message) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.Message, error)
	MarkRead(ctx context.Context, orderID string, ids []string) (int64, error)
	CountUnread(ctx context.Context, orderID string, forParty domain.SenderType) (int, error)
}

// Broadcaster pushes stored messages to live connections.
type Broadcaster interface {
	BroadcastChatMessage(msg domain.Message)
}

type ChatService struct {
	repo        MessageRepository
	broadcaster Broadcaster
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

func NewChatService(repo MessageRepository, broadcaster Broadcaster, logger *zap.Logger) *ChatService {
	return &ChatService{
		repo:        repo,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
}

// PostMessage stores an unread message and pushes it to connected clients.
// The message is stored even when nobody is connected.
func (s *ChatService) PostMessage(ctx context.Context, orderID, senderID string, senderType domain.SenderType, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)

	var details []errors.ValidationDetail
	if !senderType.IsValid() {
		details = append(details, errors.ValidationDetail{Field: "senderType", Message: "senderType must be one of: courier, customer"})
	}
	if strings.TrimSpace(senderID) == "" {
		details = append(details, errors.ValidationDetail{Field: "senderId", Message: "senderId is required"})
	} else if utf8.RuneCountInString(senderID) > maxSenderIDLength {
		details = append(details, errors.ValidationDetail{Field: "senderId", Message: fmt.Sprintf("senderId must be at most %d characters", maxSenderIDLength)})
	}
	if content == "" {
		details = append(details, errors.ValidationDetail{Field: "content", Message: "content is required"})
	} else if utf8.RuneCountInString(content) > maxContentLength {
		details = append(details, errors.ValidationDetail{Field: "content", Message: fmt.Sprintf("content must be at most %d characters", maxContentLength)})
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError("invalid message", details...)
	}

	msg := domain.Message{
		ID:         s.newID(),
		OrderID:    orderID,
		SenderID:   senderID,
		SenderType: senderType,
		Content:    content,
		IsRead:     false,
		CreatedAt:  s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.repo.Insert(ctx, msg); err != nil {
		return nil, err
	}

	s.logger.Info("chat message posted",
		zap.String("orderId", orderID),
		zap.String("messageId", msg.ID),
		zap.String("senderType", string(senderType)),
	)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastChatMessage(msg)
	}

	return &msg, nil
}

// ListMessages returns the order's messages oldest first, then marks the ones
// written by the other party as read. The returned slice reflects the state
// before marking.
func (s *ChatService) ListMessages(ctx context.Context, orderID string, reader domain.SenderType) ([]domain.Message, error) {
	if !reader.IsValid() {
		return nil, errors.NewValidationError("invalid reader",
			errors.ValidationDetail{Field: "reader", Message: "reader must be one of: courier, customer"})
	}

	messages, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Only what the reader has just been shown becomes read.
	var seen []string
	for _, msg := range messages {
		if msg.SenderType != reader && !msg.IsRead {
			seen = append(seen, msg.ID)
		}
	}
	if len(seen) == 0 {
		return messages, nil
	}

	marked, err := s.repo.MarkRead(ctx, orderID, seen)
	if err != nil {
		return nil, err
	}
	if marked > 0 {
		s.logger.Debug("messages marked read",
			zap.String("orderId", orderID),
			zap.String("reader", string(reader)),
			zap.Int64("count", marked),
		)
	}

	return messages, nil
}

func (s *ChatService) UnreadCount(ctx context.Context, orderID string, forParty domain.SenderType) (int, error) {
	if !forParty.IsValid() {
		return 0, errors.NewValidationError("invalid reader",
			errors.ValidationDetail{Field: "reader", Message: "reader must be one of: courier, customer"})
	}
	return s.repo.CountUnread(ctx, orderID, forParty)
}
