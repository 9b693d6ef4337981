package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entryCols = []string{"rank", "id", "username", "score", "total_points", "current_streak"}

func TestLeaderboardRepo_TopAllTime(t *testing.T) {
	mock := newMock(t)
	repo := NewLeaderboardRepo(mock)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery("total_points \\+ current_streak \\* 10 DESC, created_at, id").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows(entryCols).
			AddRow(1, a, "ada", 130, 100, 3).
			AddRow(2, b, "bob", 130, 130, 0))

	entries, err := repo.Top(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, a, entries[0].UserID)
	assert.Equal(t, 130, entries[1].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaderboardRepo_TopWeekly(t *testing.T) {
	mock := newMock(t)
	repo := NewLeaderboardRepo(mock)
	since := today.AddDate(0, 0, -6)

	mock.ExpectQuery("activity_date >= \\$1").
		WithArgs(since, 5).
		WillReturnRows(pgxmock.NewRows(entryCols).AddRow(1, uuid.New(), "ada", 45, 300, 2))

	entries, err := repo.Top(context.Background(), &since, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 45, entries[0].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaderboardRepo_RankOf(t *testing.T) {
	mock := newMock(t)
	repo := NewLeaderboardRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("WITH ranked AS").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"rank", "score", "total"}).AddRow(3, 90, 12))

	rank, err := repo.RankOf(context.Background(), id, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, rank.Rank)
	assert.Equal(t, 90, rank.Score)
	assert.Equal(t, 12, rank.TotalUsers)
	assert.NoError(t, mock.ExpectationsWereMet())
}
