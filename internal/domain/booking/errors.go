package booking

import (
	"time"

	"hotelstay/internal/domain"
	"hotelstay/internal/pkg/apperror"
)

func errSegmentOverlap(roomID int64, conflicts []SegmentConflict) error {
	c := conflicts[0]
	return apperror.Conflict("SEGMENT_OVERLAP", "room already has an active stay segment in this window").
		With("room_id", roomID).
		With("conflicting_booking_id", c.BookingID).
		With("conflicting_window", map[string]string{
			"from": c.StartsAt.Format(time.RFC3339),
			"to":   c.EndsAt.Format(time.RFC3339),
		}).
		With("conflict_count", len(conflicts))
}

func errRoomOccupied(roomID int64, occupant *SegmentConflict) error {
	err := apperror.Conflict("ROOM_OCCUPIED", "room is occupied by another stay").With("room_id", roomID)
	if occupant != nil {
		err.With("conflicting_booking_id", occupant.BookingID).
			With("conflicting_window", map[string]string{
				"from": occupant.StartsAt.Format(time.RFC3339),
				"to":   occupant.EndsAt.Format(time.RFC3339),
			})
	}
	return err
}

func errRoomNotReady(room *domain.Room) error {
	code := "ROOM_NOT_READY"
	switch room.Status {
	case domain.RoomMaintenance:
		code = "ROOM_MAINTENANCE"
	case domain.RoomNeedsCleaning:
		code = "ROOM_NEEDS_CLEANING"
	}
	return apperror.Conflict(code, "room cannot take guests in its current status").
		With("room_id", room.ID).
		With("room_status", room.Status)
}

func errTransition(b *domain.Booking, attempted domain.BookingStatus) error {
	return apperror.State(string(b.Status), string(attempted)).With("booking_id", b.ID)
}

func errSegmentsFrozen(b *domain.Booking) error {
	return apperror.New(apperror.KindState, "SEGMENTS_FROZEN", "stay segments can no longer change for this booking").
		With("booking_id", b.ID).
		With("current", b.Status)
}

func errNoCoveringSegment(bookingID, roomID int64, at time.Time) *apperror.Error {
	return apperror.New(apperror.KindNotFound, "NO_COVERING_SEGMENT", "no stay segment covers this instant").
		With("booking_id", bookingID).
		With("room_id", roomID).
		With("at", at.Format(time.RFC3339))
}
