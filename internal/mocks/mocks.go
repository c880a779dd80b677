package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"boardhub/internal/models"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, content, userID, username string) (models.ChatMessage, error) {
	args := m.Called(ctx, content, userID, username)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListRecent(ctx context.Context, limit, offset int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, limit, offset)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) CountMessages(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type UpdateRepositoryMock struct {
	mock.Mock
}

func (m *UpdateRepositoryMock) ListUpdates(ctx context.Context) ([]models.Update, error) {
	args := m.Called(ctx)
	var updates []models.Update
	if val := args.Get(0); val != nil {
		updates = val.([]models.Update)
	}
	return updates, args.Error(1)
}

func (m *UpdateRepositoryMock) CreateUpdate(ctx context.Context, title, contentMD, createdBy string) (models.Update, error) {
	args := m.Called(ctx, title, contentMD, createdBy)
	var update models.Update
	if val := args.Get(0); val != nil {
		update = val.(models.Update)
	}
	return update, args.Error(1)
}

func (m *UpdateRepositoryMock) DeleteUpdate(ctx context.Context, updateID int64) error {
	args := m.Called(ctx, updateID)
	return args.Error(0)
}

type TrackerMock struct {
	mock.Mock
}

func (m *TrackerMock) MarkOnline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *TrackerMock) MarkOffline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *TrackerMock) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	args := m.Called(ctx, userID)
	var seen time.Time
	if val := args.Get(0); val != nil {
		seen = val.(time.Time)
	}
	return seen, args.Bool(1), args.Error(2)
}
