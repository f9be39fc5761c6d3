package pricing

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"hotelstay/internal/domain"
	"hotelstay/internal/pkg/apperror"
	"hotelstay/internal/pkg/stayclock"
	"hotelstay/internal/pkg/validator"
)

// Service maintains the two-tier pricing calendar.
type Service struct {
	tx       CalendarTransactor
	calendar CalendarRepository
	resolver *Resolver
	log      *zap.Logger
}

func NewService(tx CalendarTransactor, calendar CalendarRepository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		tx:       tx,
		calendar: calendar,
		resolver: NewResolver(calendar),
		log:      log,
	}
}

func (s *Service) Resolver() *Resolver { return s.resolver }

func (s *Service) Quote(ctx context.Context, roomTypeID int64, mode domain.RentalMode, date time.Time) (Quote, error) {
	return s.resolver.Resolve(ctx, roomTypeID, mode, date)
}

func (s *Service) ListPeriods(ctx context.Context) ([]domain.PricingPeriod, error) {
	return s.calendar.ListPeriods(ctx)
}

func (s *Service) GetPeriod(ctx context.Context, id int64) (*PeriodDetails, error) {
	p, err := s.calendar.GetPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	prices, err := s.calendar.ListPrices(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PeriodDetails{PricingPeriod: *p, Prices: prices}, nil
}

// CreateBasePeriod creates the single base period. A second base period is
// rejected here and by the storage unique index.
func (s *Service) CreateBasePeriod(ctx context.Context, name string) (*domain.PricingPeriod, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperror.Validation("name is required")
	}

	period := &domain.PricingPeriod{Name: strings.TrimSpace(name), Kind: domain.PeriodBase}
	err := s.tx.WithinCalendarTx(ctx, func(cal CalendarRepository) error {
		existing, err := cal.GetBasePeriod(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.Conflict("BASE_PERIOD_EXISTS", "a base pricing period already exists").
				With("period_id", existing.ID)
		}
		return cal.CreatePeriod(ctx, period)
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

func (s *Service) CreateSpecialPeriod(ctx context.Context, name string, start, end time.Time) (*domain.PricingPeriod, error) {
	start, end, err := specialRange(name, start, end)
	if err != nil {
		return nil, err
	}

	period := &domain.PricingPeriod{
		Name:      strings.TrimSpace(name),
		Kind:      domain.PeriodSpecial,
		StartDate: &start,
		EndDate:   &end,
	}
	err = s.tx.WithinCalendarTx(ctx, func(cal CalendarRepository) error {
		if err := ensureNoOverlap(ctx, cal, start, end, 0); err != nil {
			return err
		}
		return cal.CreatePeriod(ctx, period)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("special pricing period created",
		zap.Int64("period_id", period.ID),
		zap.String("start", start.Format(time.DateOnly)),
		zap.String("end", end.Format(time.DateOnly)))
	return period, nil
}

func (s *Service) UpdateSpecialPeriod(ctx context.Context, id int64, name string, start, end time.Time) (*domain.PricingPeriod, error) {
	start, end, err := specialRange(name, start, end)
	if err != nil {
		return nil, err
	}

	var period *domain.PricingPeriod
	err = s.tx.WithinCalendarTx(ctx, func(cal CalendarRepository) error {
		p, err := cal.GetPeriod(ctx, id)
		if err != nil {
			return err
		}
		if p.Kind != domain.PeriodSpecial {
			return apperror.Validation("only special periods have a date range").With("period_id", id)
		}
		if err := ensureNoOverlap(ctx, cal, start, end, id); err != nil {
			return err
		}
		p.Name = strings.TrimSpace(name)
		p.StartDate = &start
		p.EndDate = &end
		period = p
		return cal.UpdatePeriod(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

func (s *Service) DeleteSpecialPeriod(ctx context.Context, id int64) error {
	return s.tx.WithinCalendarTx(ctx, func(cal CalendarRepository) error {
		p, err := cal.GetPeriod(ctx, id)
		if err != nil {
			return err
		}
		if p.Kind == domain.PeriodBase {
			return apperror.Conflict("BASE_PERIOD_REQUIRED", "the base pricing period cannot be deleted")
		}
		return cal.DeletePeriod(ctx, id)
	})
}

// SetPrices upserts price rows for a period.
func (s *Service) SetPrices(ctx context.Context, periodID int64, prices []PriceInput) ([]domain.RoomTypePrice, error) {
	if len(prices) == 0 {
		return nil, apperror.Validation("at least one price is required")
	}
	for _, p := range prices {
		if err := validator.Check(p); err != nil {
			return nil, err
		}
	}

	var out []domain.RoomTypePrice
	err := s.tx.WithinCalendarTx(ctx, func(cal CalendarRepository) error {
		if _, err := cal.GetPeriod(ctx, periodID); err != nil {
			return err
		}
		for _, p := range prices {
			ok, err := cal.RoomTypeExists(ctx, p.RoomTypeID)
			if err != nil {
				return err
			}
			if !ok {
				return apperror.NotFound("room type", p.RoomTypeID)
			}
			row := &domain.RoomTypePrice{
				PeriodID:   periodID,
				RoomTypeID: p.RoomTypeID,
				RentalMode: p.RentalMode,
				UnitPrice:  domain.RoundMoney(p.UnitPrice),
			}
			if err := cal.UpsertPrice(ctx, row); err != nil {
				return err
			}
		}
		var err error
		out, err = cal.ListPrices(ctx, periodID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func specialRange(name string, start, end time.Time) (time.Time, time.Time, error) {
	if strings.TrimSpace(name) == "" {
		return time.Time{}, time.Time{}, apperror.Validation("name is required")
	}
	start, end = stayclock.DateOf(start), stayclock.DateOf(end)
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperror.Validation("end_date must not be before start_date").
			With("start_date", start.Format(time.DateOnly)).
			With("end_date", end.Format(time.DateOnly))
	}
	return start, end, nil
}

func ensureNoOverlap(ctx context.Context, cal CalendarRepository, start, end time.Time, excludeID int64) error {
	overlapping, err := cal.FindOverlappingSpecial(ctx, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(overlapping) == 0 {
		return nil
	}
	p := overlapping[0]
	return apperror.Conflict("SPECIAL_PERIOD_OVERLAP", "special period overlaps an existing one").
		With("period_id", p.ID).
		With("period_name", p.Name).
		With("start_date", p.StartDate.Format(time.DateOnly)).
		With("end_date", p.EndDate.Format(time.DateOnly))
}
