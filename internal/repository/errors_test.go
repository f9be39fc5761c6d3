package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"hotelstay/internal/pkg/apperror"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperror.Kind
		code string
	}{
		{"not found", gorm.ErrRecordNotFound, apperror.KindNotFound, "NOT_FOUND"},
		{"gorm duplicate", gorm.ErrDuplicatedKey, apperror.KindConflict, "DUPLICATE"},
		{"pg segment overlap", &pgconn.PgError{Code: "23P01", ConstraintName: constraintActiveSegmentOverlap}, apperror.KindConflict, "SEGMENT_OVERLAP"},
		{"pg segment start", &pgconn.PgError{Code: "23505", ConstraintName: constraintActiveSegmentStart}, apperror.KindConflict, "SEGMENT_OVERLAP"},
		{"pg base period", &pgconn.PgError{Code: "23505", ConstraintName: constraintSingleBase}, apperror.KindConflict, "BASE_PERIOD_EXISTS"},
		{"pg special overlap", &pgconn.PgError{Code: "23P01", ConstraintName: constraintSpecialOverlap}, apperror.KindConflict, "SPECIAL_PERIOD_OVERLAP"},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, apperror.KindConflict, "CONCURRENT_UPDATE"},
		{
			"sqlite segment start",
			errors.New("constraint failed: UNIQUE constraint failed: stay_segments.room_id, stay_segments.starts_at (2067)"),
			apperror.KindConflict, "SEGMENT_OVERLAP",
		},
		{
			"sqlite base period",
			errors.New("UNIQUE constraint failed: pricing_periods.kind"),
			apperror.KindConflict, "BASE_PERIOD_EXISTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(fmt.Errorf("exec: %w", tt.err), "thing", 7)
			assert.Equal(t, tt.kind, apperror.KindOf(got))
			e, ok := apperror.As(got)
			if assert.True(t, ok) {
				assert.Equal(t, tt.code, e.Code)
			}
		})
	}
}

func TestTranslateError_PassThrough(t *testing.T) {
	assert.NoError(t, translateError(nil, "x", nil))

	app := apperror.Validation("bad")
	assert.Same(t, app, translateError(app, "x", nil))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, translateError(plain, "x", nil))

	other := &pgconn.PgError{Code: "42P01"}
	assert.Equal(t, other, translateError(other, "x", nil))
}

func TestSqliteConstraint_IndexName(t *testing.T) {
	err := errors.New("UNIQUE constraint failed: index 'idx_rooms_number'")
	assert.Equal(t, "idx_rooms_number", sqliteConstraint(err))
	assert.Equal(t, "", sqliteConstraint(errors.New("UNIQUE constraint failed")))
}

func TestIsSerializationFailure(t *testing.T) {
	assert.True(t, isSerializationFailure(fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40P01"})))
	assert.False(t, isSerializationFailure(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isSerializationFailure(errors.New("40001")))
}
