package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/domain/apperror"
	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	repo "github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

const (
	messagePageSize = 50
	messagePageMax  = 100
)

type MessageService struct {
	Messages repo.MessageRepository
	Bookings repo.BookingRepository
	Notifier MessageNotifier
	Logger   *logrus.Logger
}

func NewMessageService(messages repo.MessageRepository, bookings repo.BookingRepository, logger *logrus.Logger) *MessageService {
	return &MessageService{Messages: messages, Bookings: bookings, Logger: logger}
}

// Authorize returns the booking when userID is one of its parties.
func (s *MessageService) Authorize(ctx context.Context, bookingID, userID string) (*entity.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("booking not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load booking", err)
	}
	if !b.IsParty(userID) {
		return nil, apperror.Forbidden("forbidden")
	}
	return b, nil
}

func (s *MessageService) Conversations(ctx context.Context, userID string, role entity.Role) ([]entity.Conversation, error) {
	scope := scopeFor(userID, role)
	if role == entity.RoleAdmin {
		// conversations are personal; admins only see their own threads
		scope = repo.PartyScope{UserID: userID}
	}
	convs, err := s.Messages.Conversations(ctx, scope, userID)
	if err != nil {
		return nil, apperror.Internal("failed to list conversations", err)
	}
	return convs, nil
}

type MessageList struct {
	Messages   []entity.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// List returns the thread oldest first and marks the counterpart's messages read.
func (s *MessageService) List(ctx context.Context, bookingID, userID string, page, limit int) (*MessageList, error) {
	if _, err := s.Authorize(ctx, bookingID, userID); err != nil {
		return nil, err
	}
	p := repo.NewPage(page, limit, messagePageSize, messagePageMax)
	msgs, total, err := s.Messages.List(ctx, bookingID, p)
	if err != nil {
		return nil, apperror.Internal("failed to list messages", err)
	}
	if _, err := s.Messages.MarkRead(ctx, bookingID, userID); err != nil {
		return nil, apperror.Internal("failed to mark messages read", err)
	}
	return &MessageList{Messages: msgs, Pagination: newPagination(total, p.Number, p.Size)}, nil
}

// Send stores a message authored by userID and notifies the booking's room
// and the counterpart.
func (s *MessageService) Send(ctx context.Context, bookingID, userID, text string) (*entity.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Validation("message text is required")
	}
	if len([]rune(text)) > entity.MaxMessageLength {
		return nil, apperror.Validation("message must be at most 2000 characters")
	}
	b, err := s.Authorize(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	m := &entity.Message{BookingID: bookingID, FromUserID: userID, Text: text}
	if err := s.Messages.Create(ctx, m); err != nil {
		return nil, apperror.Internal("failed to send message", err)
	}
	if s.Notifier != nil {
		s.Notifier.MessageCreated(ctx, b, m)
	}
	return m, nil
}
