package inventory

import (
	"context"

	"hotelstay/internal/domain"
	"hotelstay/internal/pkg/apperror"
)

type RoomTypeSummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Capacity     int    `json:"capacity"`
	RoomCount    int64  `json:"room_count"`
	AvailableNow int64  `json:"available_now"`
}

type RoomFilter struct {
	RoomTypeID int64
	Status     domain.RoomStatus
	Floor      *int
}

type Repository interface {
	ListRoomTypes(ctx context.Context) ([]RoomTypeSummary, error)
	ListRooms(ctx context.Context, f RoomFilter) ([]domain.Room, error)
	GetRoom(ctx context.Context, id int64) (*domain.Room, error)
	ListServices(ctx context.Context, activeOnly bool) ([]domain.ServiceItem, error)
}

// Service is read-only. Room status changes go through the booking engine.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) RoomTypes(ctx context.Context) ([]RoomTypeSummary, error) {
	return s.repo.ListRoomTypes(ctx)
}

func (s *Service) Rooms(ctx context.Context, f RoomFilter) ([]domain.Room, error) {
	switch f.Status {
	case "", domain.RoomAvailable, domain.RoomOccupied, domain.RoomMaintenance, domain.RoomNeedsCleaning:
	default:
		return nil, apperror.Validation("unknown room status").With("status", f.Status)
	}
	return s.repo.ListRooms(ctx, f)
}

func (s *Service) Room(ctx context.Context, id int64) (*domain.Room, error) {
	return s.repo.GetRoom(ctx, id)
}

func (s *Service) Services(ctx context.Context, includeInactive bool) ([]domain.ServiceItem, error) {
	return s.repo.ListServices(ctx, !includeInactive)
}
