package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"hotelstay/internal/pkg/apperror"
)

// Constraint names created by database.Migrate.
const (
	constraintActiveSegmentStart   = "ux_segments_active_room_start"
	constraintActiveSegmentOverlap = "ex_segments_active_room_overlap"
	constraintSingleBase           = "ux_pricing_single_base"
	constraintSpecialOverlap       = "ex_pricing_special_overlap"
)

// translateError maps driver and gorm errors onto the application error
// taxonomy. Errors that already carry a kind pass through.
func translateError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entity, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23P01":
			return constraintConflict(pgErr.ConstraintName, err)
		case "40001", "40P01":
			return apperror.Wrap(apperror.KindConflict, "CONCURRENT_UPDATE", "another request changed the same rows, retry", err)
		}
		return err
	}

	if isUniqueConstraintError(err) {
		return constraintConflict(sqliteConstraint(err), err)
	}
	return err
}

func constraintConflict(constraint string, err error) error {
	switch constraint {
	case constraintActiveSegmentStart, constraintActiveSegmentOverlap:
		return apperror.Wrap(apperror.KindConflict, "SEGMENT_OVERLAP", "room already has an active stay segment in this window", err).
			With("constraint", constraint)
	case constraintSingleBase:
		return apperror.Wrap(apperror.KindConflict, "BASE_PERIOD_EXISTS", "a base pricing period already exists", err)
	case constraintSpecialOverlap:
		return apperror.Wrap(apperror.KindConflict, "SPECIAL_PERIOD_OVERLAP", "special period overlaps an existing one", err)
	}
	return apperror.Wrap(apperror.KindConflict, "DUPLICATE", "record already exists", err).With("constraint", constraint)
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}

// sqliteConstraint recovers the index name from a sqlite unique failure.
// sqlite reports the columns, so partial indexes are recognised by them.
func sqliteConstraint(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "stay_segments.room_id") && strings.Contains(msg, "stay_segments.starts_at"):
		return constraintActiveSegmentStart
	case strings.Contains(msg, "pricing_periods.kind"):
		return constraintSingleBase
	}
	if i := strings.Index(msg, "index '"); i >= 0 {
		rest := msg[i+len("index '"):]
		if j := strings.Index(rest, "'"); j >= 0 {
			return rest[:j]
		}
	}
	return ""
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
