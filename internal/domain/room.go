package domain

import "time"

type RentalMode string

const (
	RentalNight RentalMode = "NIGHT"
	RentalHour  RentalMode = "HOUR"
)

func (m RentalMode) Valid() bool {
	return m == RentalNight || m == RentalHour
}

type RoomStatus string

const (
	RoomAvailable     RoomStatus = "AVAILABLE"
	RoomOccupied      RoomStatus = "OCCUPIED"
	RoomMaintenance   RoomStatus = "MAINTENANCE"
	RoomNeedsCleaning RoomStatus = "NEEDS_CLEANING"
)

type RoomType struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:120;not null;uniqueIndex" validate:"required"`
	Capacity  int       `json:"capacity" gorm:"not null;default:2" validate:"required,gt=0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Room is a physical room. Its occupancy status is written only by the
// booking lifecycle and transfer flows.
type Room struct {
	ID         int64      `json:"id" gorm:"primaryKey"`
	Number     string     `json:"number" gorm:"size:16;not null;uniqueIndex" validate:"required"`
	RoomTypeID int64      `json:"room_type_id" gorm:"not null;index" validate:"required"`
	Floor      int        `json:"floor"`
	Status     RoomStatus `json:"status" gorm:"size:20;not null;default:AVAILABLE"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	RoomType *RoomType `json:"room_type,omitempty" gorm:"foreignKey:RoomTypeID"`
}

// RoomStatusChange is emitted after a committed status write.
type RoomStatusChange struct {
	RoomID    int64      `json:"room_id"`
	From      RoomStatus `json:"from"`
	To        RoomStatus `json:"to"`
	BookingID int64      `json:"booking_id,omitempty"`
	At        time.Time  `json:"at"`
}
