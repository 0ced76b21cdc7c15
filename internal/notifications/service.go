package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/pkg/db/models"
	"github.com/thedilution/dilution-backend/pkg/enums"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
)

// Service defines in-app notification operations.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Notification, error)
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo Repository
}

// RecordInput captures the immutable data a notification requires.
type RecordInput struct {
	UserID     uuid.UUID
	JobcardID  uuid.UUID
	SourceType string
	Message    string
	Severity   enums.NotificationSeverity
}

// NewService wires a notifications service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.Notification, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.JobcardID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jobcard id is required")
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if !input.Severity.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid severity %q", input.Severity))
	}

	notification := &models.Notification{
		UserID:     input.UserID,
		JobcardID:  input.JobcardID,
		SourceType: input.SourceType,
		Message:    input.Message,
		Severity:   input.Severity,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUserID(ctx, userID, unreadOnly)
}

// MarkRead flips a single notification; callers may only touch their own rows.
func (s *service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil || id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and notification id are required")
	}
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return err
	}
	if notification.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "notification belongs to another user")
	}
	return s.repo.MarkRead(ctx, id, time.Now().UTC())
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
}
