package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	return gormDB, mock
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGormStore_CreateSection(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedID       int64
		expectedErr      error
	}{
		{
			name: "Unused section_id is inserted",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "sections" WHERE section_id = $1`)).
					WithArgs("S1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "sections"`)).
					WithArgs("Main Hall", "S1", "Building A", true, now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
				mock.ExpectCommit()
			},
			expectedID: 7,
		},
		{
			name: "Used section_id is rejected before insert",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "sections" WHERE section_id = $1`)).
					WithArgs("S1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			},
			expectedErr: ErrConstraintViolation,
		},
		{
			name: "Unique index violation from a concurrent insert",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "sections" WHERE section_id = $1`)).
					WithArgs("S1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "sections"`)).
					WithArgs("Main Hall", "S1", "Building A", true, now, now).
					WillReturnError(gorm.ErrDuplicatedKey)
				mock.ExpectRollback()
			},
			expectedErr: ErrConstraintViolation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB, WithClock(fixedClock(now)))

			tc.mockExpectations(mock)

			section, err := s.CreateSection(context.Background(), "Main Hall", "S1", "Building A")

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, section)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedID, section.ID)
				assert.True(t, section.Active)
				assert.Equal(t, now, section.CreatedAt)
				assert.Equal(t, now, section.UpdatedAt)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_SoftDeleteSection(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      error
	}{
		{
			name: "Existing section is flagged inactive",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT "id" FROM "sections" WHERE "sections"."id" = \$1 ORDER BY "sections"."id" LIMIT \$[0-9]+`).
					WithArgs(5, 1).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE "sections" SET "active"=\$1,"updated_at"=\$2 WHERE .*"id" = \$3`).
					WithArgs(false, now, 5).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "Missing section is not found",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT "id" FROM "sections" WHERE "sections"."id" = \$1 ORDER BY "sections"."id" LIMIT \$[0-9]+`).
					WithArgs(5, 1).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB, WithClock(fixedClock(now)))

			tc.mockExpectations(mock)

			err := s.SoftDeleteSection(context.Background(), 5)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_CountActiveMachines(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(`SELECT section_id AS section_id, COUNT\(\*\) AS machine_count FROM "machines" WHERE .*active = \$1 AND section_id IN \(\$2,\$3\).* GROUP BY "?section_id"?`).
		WithArgs(true, 1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"section_id", "machine_count"}).AddRow(1, 3))

	counts, err := s.CountActiveMachines(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 3}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CountActiveMachines_NoSections(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	counts, err := s.CountActiveMachines(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_UpdateMachine_MissingSection(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB, WithClock(fixedClock(now)))

	mock.ExpectQuery(`SELECT \* FROM "machines" WHERE "machines"."id" = \$1 ORDER BY "machines"."id" LIMIT \$[0-9]+`).
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "section_id", "active", "created_at", "updated_at"}).
			AddRow(3, "Printer1", 1, true, now, now))
	mock.ExpectQuery(`SELECT \* FROM "sections" WHERE "sections"."id" = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "section_id", "location", "active", "created_at", "updated_at"}).
			AddRow(1, "Main Hall", "S1", "Building A", true, now, now))
	mock.ExpectQuery(`SELECT \* FROM "sections" WHERE "sections"."id" = \$1 ORDER BY "sections"."id" LIMIT \$[0-9]+`).
		WithArgs(99, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	machine, err := s.UpdateMachine(context.Background(), 3, MachineUpdate{SectionID: Some(int64(99))})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, machine)
	// No UPDATE statement was expected, so an unexpected write fails here.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	boom := errors.New("boom")

	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("wrapped: %w", gorm.ErrDuplicatedKey)), ErrConstraintViolation)
	assert.ErrorIs(t, translate(gorm.ErrForeignKeyViolated), ErrNotFound)
	assert.Same(t, boom, translate(boom))
}
