package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/observability"
	"exercise-tracker/internal/repository"
)

// ExerciseService appends to and queries users' exercise logs.
type ExerciseService interface {
	AppendEntry(ctx context.Context, input AppendEntryInput) (*AppendResult, error)
	QueryLogs(ctx context.Context, userID string, filter domain.LogFilter) (*domain.LogView, error)
}

// AppendEntryInput carries raw caller values. Duration and Date are parsed here.
type AppendEntryInput struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

// AppendResult is the stored entry plus enough of its owner to build a response.
type AppendResult struct {
	UserID   string
	Username string
	Entry    domain.LogEntry
}

type exerciseService struct {
	users UserService
	repo  repository.UserRepository
	now   func() time.Time
}

func NewExerciseService(users UserService, repo repository.UserRepository) ExerciseService {
	return &exerciseService{
		users: users,
		repo:  repo,
		now:   time.Now,
	}
}

func (s *exerciseService) AppendEntry(ctx context.Context, input AppendEntryInput) (*AppendResult, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	duration, err := domain.ParseDuration(input.Duration)
	if err != nil {
		return nil, err
	}
	date, ok := domain.ParseDate(input.Date)
	if !ok {
		date = s.now().UTC()
	}

	owner, err := s.users.GetUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	entry := domain.LogEntry{
		Description: description,
		Duration:    duration,
		Date:        date,
	}
	updated, err := s.repo.Update(ctx, owner.ID, func(user *domain.User) error {
		user.Append(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordEntryAppended()
	return &AppendResult{
		UserID:   updated.ID,
		Username: updated.Username,
		Entry:    entry,
	}, nil
}

func (s *exerciseService) QueryLogs(ctx context.Context, userID string, filter domain.LogFilter) (*domain.LogView, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := filter.Apply(user.Log)
	observability.RecordLogQuery()
	return &domain.LogView{
		UserID:   user.ID,
		Username: user.Username,
		Count:    len(entries),
		Log:      entries,
	}, nil
}
