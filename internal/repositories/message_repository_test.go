package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

var messageRowColumns = []string{"id", "content", "user_id", "username", "created_at"}

func TestCreateMessageReturnsStoredRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO chat_messages (content, user_id, username) VALUES ($1, $2, $3) RETURNING`)).
		WithArgs("hello", "u1", "alice").
		WillReturnRows(sqlmock.NewRows(messageRowColumns).AddRow("7", "hello", "u1", "alice", created))

	msg, err := repo.CreateMessage(context.Background(), "hello", "u1", "alice")
	require.NoError(t, err)

	assert.Equal(t, "7", msg.ID)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "alice", msg.Username)
	assert.Equal(t, created, msg.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMessagePropagatesError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO chat_messages`)).WillReturnError(assert.AnError)

	_, err := repo.CreateMessage(context.Background(), "hello", "u1", "alice")
	require.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentOrdersNewestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC, id DESC`)).
		WithArgs(2, 0).
		WillReturnRows(sqlmock.NewRows(messageRowColumns).
			AddRow("2", "second", "u1", "alice", now).
			AddRow("1", "first", "u1", "alice", now.Add(-time.Second)))

	msgs, err := repo.ListRecent(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "2", msgs[0].ID)
	assert.Equal(t, "1", msgs[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentEmptyIsNotNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM chat_messages`)).
		WithArgs(50, 100).
		WillReturnRows(sqlmock.NewRows(messageRowColumns))

	msgs, err := repo.ListRecent(context.Background(), 50, 100)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestCountMessages(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM chat_messages`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	total, err := repo.CountMessages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, total)
}
