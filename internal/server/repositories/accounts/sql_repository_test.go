package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/signupd/internal/common"
	"github.com/dmitrijs2005/signupd/internal/dbx"
	"github.com/dmitrijs2005/signupd/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	existsQuery = `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1\)$`
	insertQuery = `(?s)^INSERT\s+INTO\s+accounts\s*\(id,\s*email,\s*password_hash,\s*display_name,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)$`
	listQuery   = `(?s)^SELECT\s+id,\s*email,\s*display_name,\s*created_at\s+FROM\s+accounts\s+ORDER\s+BY\s+created_at,\s*email$`
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewSQLRepository(db, dbx.DialectPostgres), mock, db
}

func TestExists(t *testing.T) {
	tests := []struct {
		name string
		row  bool
	}{
		{"present", true},
		{"absent", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(existsQuery).
				WithArgs("jo@example.com").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.row))

			got, err := repo.Exists(context.Background(), "jo@example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.row, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestExists_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(existsQuery).
		WithArgs("jo@example.com").
		WillReturnError(errors.New("db down"))

	_, err := repo.Exists(context.Background(), "jo@example.com")
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(insertQuery).
		WithArgs("id-1", "jo@example.com", "$argon2id$hash", "Jo", created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := &models.Account{ID: "id-1", Email: "jo@example.com", PasswordHash: "$argon2id$hash", DisplayName: "Jo", CreatedAt: created}
	got, err := repo.Insert(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_SetsCreatedAt(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).
		WithArgs("id-1", "jo@example.com", "h", "Jo", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Insert(context.Background(), &models.Account{ID: "id-1", Email: "jo@example.com", PasswordHash: "h", DisplayName: "Jo"})
	require.NoError(t, err)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestInsert_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	_, err := repo.Insert(context.Background(), &models.Account{ID: "id-2", Email: "jo@example.com"})
	require.ErrorIs(t, err, common.ErrConflict)
	assert.NotErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).
		WillReturnError(errors.New("db down"))

	_, err := repo.Insert(context.Background(), &models.Account{ID: "id-2", Email: "jo@example.com"})
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, common.ErrConflict)
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(listQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "created_at"}).
			AddRow("a", "a@example.com", "A", t1).
			AddRow("b", "b@example.com", "B", t1.Add(time.Hour)))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a@example.com", got[0].Email)
	assert.Empty(t, got[0].PasswordHash)
}

func TestList_Errors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(listQuery).WillReturnError(errors.New("db down"))

		_, err := repo.List(context.Background())
		require.ErrorIs(t, err, common.ErrStoreUnavailable)
	})

	t.Run("rows", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(listQuery).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "created_at"}).
				AddRow("a", "a@example.com", "A", time.Now()).
				RowError(0, errors.New("broken row")))

		_, err := repo.List(context.Background())
		require.ErrorIs(t, err, common.ErrStoreUnavailable)
	})
}
