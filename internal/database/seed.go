package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"hotelstay/internal/domain"
	"hotelstay/internal/pkg/stayclock"
)

// Catalog is the reference data written by Seed.
type Catalog struct {
	Standard     domain.RoomType
	Deluxe       domain.RoomType
	Rooms        map[string]domain.Room
	BasePeriod   domain.PricingPeriod
	TetPeriod    domain.PricingPeriod
	Breakfast    domain.ServiceItem
	Laundry      domain.ServiceItem
	Minibar      domain.ServiceItem
	RetiredSpa   domain.ServiceItem
	BaseRates    map[int64]map[domain.RentalMode]float64
	SpecialRates map[int64]map[domain.RentalMode]float64
}

// Room returns the seeded room with the given number.
func (c *Catalog) Room(number string) domain.Room {
	return c.Rooms[number]
}

// Seed writes room types, rooms, a base calendar, the Tet 2026 special
// calendar and the service catalog in one transaction.
func Seed(ctx context.Context, db *gorm.DB) (*Catalog, error) {
	cat := &Catalog{
		Rooms:        map[string]domain.Room{},
		BaseRates:    map[int64]map[domain.RentalMode]float64{},
		SpecialRates: map[int64]map[domain.RentalMode]float64{},
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cat.Standard = domain.RoomType{Name: "Standard", Capacity: 2}
		cat.Deluxe = domain.RoomType{Name: "Deluxe", Capacity: 3}
		if err := tx.Create(&cat.Standard).Error; err != nil {
			return fmt.Errorf("room types: %w", err)
		}
		if err := tx.Create(&cat.Deluxe).Error; err != nil {
			return fmt.Errorf("room types: %w", err)
		}

		layout := []struct {
			number string
			floor  int
			typeID int64
		}{
			{"101", 1, cat.Standard.ID},
			{"102", 1, cat.Standard.ID},
			{"103", 1, cat.Standard.ID},
			{"201", 2, cat.Deluxe.ID},
			{"202", 2, cat.Deluxe.ID},
		}
		for _, l := range layout {
			room := domain.Room{Number: l.number, Floor: l.floor, RoomTypeID: l.typeID, Status: domain.RoomAvailable}
			if err := tx.Create(&room).Error; err != nil {
				return fmt.Errorf("room %s: %w", l.number, err)
			}
			cat.Rooms[l.number] = room
		}

		cat.BasePeriod = domain.PricingPeriod{Name: "Base rates", Kind: domain.PeriodBase}
		if err := tx.Create(&cat.BasePeriod).Error; err != nil {
			return fmt.Errorf("base period: %w", err)
		}
		start, end := stayclock.Date(2026, 2, 14), stayclock.Date(2026, 2, 22)
		cat.TetPeriod = domain.PricingPeriod{Name: "Tet 2026", Kind: domain.PeriodSpecial, StartDate: &start, EndDate: &end}
		if err := tx.Create(&cat.TetPeriod).Error; err != nil {
			return fmt.Errorf("special period: %w", err)
		}

		cat.BaseRates[cat.Standard.ID] = map[domain.RentalMode]float64{domain.RentalNight: 500000, domain.RentalHour: 80000}
		cat.BaseRates[cat.Deluxe.ID] = map[domain.RentalMode]float64{domain.RentalNight: 900000, domain.RentalHour: 120000}
		cat.SpecialRates[cat.Standard.ID] = map[domain.RentalMode]float64{domain.RentalNight: 750000, domain.RentalHour: 120000}
		cat.SpecialRates[cat.Deluxe.ID] = map[domain.RentalMode]float64{domain.RentalNight: 1350000}

		for periodID, rates := range map[int64]map[int64]map[domain.RentalMode]float64{
			cat.BasePeriod.ID: cat.BaseRates,
			cat.TetPeriod.ID:  cat.SpecialRates,
		} {
			for typeID, byMode := range rates {
				for mode, price := range byMode {
					row := domain.RoomTypePrice{PeriodID: periodID, RoomTypeID: typeID, RentalMode: mode, UnitPrice: price}
					if err := tx.Create(&row).Error; err != nil {
						return fmt.Errorf("price rows: %w", err)
					}
				}
			}
		}

		cat.Breakfast = domain.ServiceItem{Name: "Breakfast", UnitPrice: 80000, Active: true}
		cat.Laundry = domain.ServiceItem{Name: "Laundry", UnitPrice: 50000, Active: true}
		cat.Minibar = domain.ServiceItem{Name: "Minibar", UnitPrice: 30000, Active: true}
		cat.RetiredSpa = domain.ServiceItem{Name: "Spa", UnitPrice: 400000, Active: true}
		for _, s := range []*domain.ServiceItem{&cat.Breakfast, &cat.Laundry, &cat.Minibar, &cat.RetiredSpa} {
			if err := tx.Create(s).Error; err != nil {
				return fmt.Errorf("service %s: %w", s.Name, err)
			}
		}
		// A false Active would be dropped in favour of the column default.
		if err := tx.Model(&cat.RetiredSpa).Update("active", false).Error; err != nil {
			return fmt.Errorf("retire spa: %w", err)
		}
		cat.RetiredSpa.Active = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}
