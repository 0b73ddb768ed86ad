package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/skyport/internal/domain/entity"
	"github.com/oksasatya/skyport/internal/domain/repository"
)

func newContentRepoWithMock(t *testing.T) (*ContentRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewContentRepository(mock), mock
}

func TestContentRepository_CreateObject_Duplicate(t *testing.T) {
	repo, mock := newContentRepoWithMock(t)
	mock.ExpectQuery(`INSERT INTO stellar_objects`).
		WithArgs("Andromeda").
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "stellar_objects_name_lower_key"})

	err := repo.CreateObject(context.Background(), &entity.StellarObject{Name: "Andromeda"})
	assert.ErrorIs(t, err, repository.ErrDuplicateObject)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_GetObjectByName(t *testing.T) {
	repo, mock := newContentRepoWithMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`WHERE lower\(name\) = lower\(\$1\)`).
		WithArgs("andromeda").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at"}).AddRow("o-1", "Andromeda", now))

	got, err := repo.GetObjectByName(context.Background(), "andromeda")
	require.NoError(t, err)
	assert.Equal(t, "Andromeda", got.Name)

	mock.ExpectQuery(`FROM stellar_objects`).
		WithArgs("vulcan").
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetObjectByName(context.Background(), "vulcan")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestContentRepository_ObjectCommentsUseLowercaseKey(t *testing.T) {
	repo, mock := newContentRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO comments`).
		WithArgs("u-1", "object", "andromeda", "nice view").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("c-1", now))

	c := &entity.Comment{CommenterID: "u-1", Target: entity.TargetObject, TargetKey: "Andromeda", Content: "nice view"}
	require.NoError(t, repo.CreateComment(context.Background(), c))
	assert.Equal(t, "andromeda", c.TargetKey)

	mock.ExpectQuery(`WHERE c.target = \$1 AND c.target_key = \$2`).
		WithArgs("object", "andromeda").
		WillReturnRows(pgxmock.NewRows([]string{"id", "commenter_id", "username", "target", "target_key", "content", "created_at"}).
			AddRow("c-1", "u-1", "alice", "object", "andromeda", "nice view", now))

	got, err := repo.ListComments(context.Background(), entity.TargetObject, "ANDROMEDA")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].CommenterUsername)
	assert.Equal(t, entity.TargetObject, got[0].Target)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_SearchPosts(t *testing.T) {
	repo, mock := newContentRepoWithMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`WHERE p.title ILIKE \$1`).
		WithArgs("%nebula%", 50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "poster_id", "username", "title", "content", "created_at"}).
			AddRow("p-1", "u-1", "alice", "Crab Nebula tonight", "clear skies over the hills", now))

	got, err := repo.SearchPosts(context.Background(), "nebula", 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].PosterUsername)
}
