package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/availability"
	"github.com/noah-isme/backend-menu/internal/catalog"
	"github.com/noah-isme/backend-menu/internal/common"
	"github.com/noah-isme/backend-menu/internal/db"
	"github.com/noah-isme/backend-menu/internal/lock"
	"github.com/noah-isme/backend-menu/internal/obs"
)

// Service handles reservations of bookable items.
type Service struct {
	store   db.TxQuerier
	locker  catalog.Locker
	lockTTL time.Duration
	loc     *time.Location
	now     func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store    db.TxQuerier
	Locker   catalog.Locker
	LockTTL  time.Duration
	Location *time.Location
	Now      func() time.Time
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("booking: store is required")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Service{store: cfg.Store, locker: cfg.Locker, lockTTL: ttl, loc: loc, now: now}, nil
}

// CreateInput is the payload of POST /items/{id}/bookings.
type CreateInput struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

// View is the API representation of a booking.
type View struct {
	ID        uuid.UUID    `json:"id"`
	ItemID    uuid.UUID    `json:"item_id"`
	StartTime time.Time    `json:"start_time"`
	EndTime   time.Time    `json:"end_time"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Item      *ItemSummary `json:"item,omitempty"`
}

// ItemSummary identifies the booked item.
type ItemSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (s *Service) view(b db.Booking) View {
	return View{
		ID:        b.ID,
		ItemID:    b.ItemID,
		StartTime: b.StartTime.In(s.loc),
		EndTime:   b.EndTime.In(s.loc),
		Status:    b.Status,
		CreatedAt: b.CreatedAt.In(s.loc),
		UpdatedAt: b.UpdatedAt.In(s.loc),
	}
}

// Create reserves [start, end) on an item. The overlap check and insert run under a per-item
// lock and a row lock on the item.
func (s *Service) Create(ctx context.Context, itemID uuid.UUID, in CreateInput) (View, error) {
	start, end := in.StartTime.In(s.loc), in.EndTime.In(s.loc)
	if !start.Before(end) {
		obs.ObserveBooking("invalid")
		return View{}, common.BadRequest("INVALID_TIME_RANGE", "start_time must be before end_time", nil)
	}
	if start.Before(s.now()) {
		obs.ObserveBooking("invalid")
		return View{}, common.BadRequest("INVALID_TIME_RANGE", "cannot book in the past", nil)
	}

	var out View
	run := func(ctx context.Context) error {
		return s.store.ExecTx(ctx, func(q db.Querier) error {
			if _, err := q.LockItem(ctx, itemID); err != nil {
				if db.IsNotFound(err) {
					return common.NotFound("item not found")
				}
				return fmt.Errorf("lock item: %w", err)
			}
			chain, err := catalog.LoadChain(ctx, q, itemID)
			if err != nil {
				return err
			}
			if err := s.checkBookable(chain); err != nil {
				return err
			}
			if err := s.checkWithinAvailability(chain, start, end); err != nil {
				obs.ObserveBooking("outside_hours")
				return err
			}

			existing, err := q.FindOverlappingBooking(ctx, db.FindOverlappingBookingParams{
				ItemID: itemID, StartTime: start, EndTime: end,
			})
			switch {
			case err == nil:
				obs.ObserveBooking("conflict")
				return common.Conflict("BOOKING_CONFLICT", "time slot conflicts with an existing booking", nil).
					WithDetails(map[string]any{"conflict": map[string]time.Time{
						"start": existing.StartTime.In(s.loc),
						"end":   existing.EndTime.In(s.loc),
					}})
			case !db.IsNotFound(err):
				return fmt.Errorf("find overlapping booking: %w", err)
			}

			b, err := q.CreateBooking(ctx, db.CreateBookingParams{ItemID: itemID, StartTime: start, EndTime: end})
			if err != nil {
				return fmt.Errorf("create booking: %w", err)
			}
			out = s.view(b)
			out.Item = &ItemSummary{ID: chain.Item.ID, Name: chain.Item.Name}
			return nil
		})
	}

	var err error
	if s.locker != nil {
		err = s.locker.WithLock(ctx, lock.Key("booking", itemID.String()), s.lockTTL, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return View{}, common.Conflict("BUSY", "another booking for this item is in progress", err)
		}
		return View{}, err
	}
	obs.ObserveBooking("created")
	obs.LoggerFrom(ctx).Info().
		Str("booking_id", out.ID.String()).
		Str("item_id", itemID.String()).
		Time("start_time", start).
		Time("end_time", end).
		Msg("booking created")
	return out, nil
}

func (s *Service) checkBookable(chain catalog.Chain) error {
	if !chain.Item.IsBookable {
		return common.BadRequest("NOT_BOOKABLE", "this item is not bookable", nil)
	}
	if !chain.EffectivelyActive() {
		return common.BadRequest("ITEM_INACTIVE", "this item is not active", nil)
	}
	return nil
}

func (s *Service) checkWithinAvailability(chain catalog.Chain, start, end time.Time) error {
	days, windows, err := chain.Availability()
	if err != nil {
		return fmt.Errorf("decode availability: %w", err)
	}
	outside := common.BadRequest("OUTSIDE_AVAILABILITY", "booking time is outside the item's availability", nil)
	if len(days) == 0 || len(windows) == 0 {
		return outside
	}
	if !days.Has(availability.DayOf(start)) {
		return outside
	}
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy != ey || sm != em || sd != ed {
		return outside
	}
	if _, ok := availability.Contains(windows, availability.ClockOf(start), availability.CeilClockOf(end)); !ok {
		return outside
	}
	return nil
}

// Cancel moves a confirmed booking to cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (View, error) {
	b, err := s.store.CancelBooking(ctx, id)
	if err == nil {
		obs.ObserveBooking("cancelled")
		return s.view(b), nil
	}
	if !db.IsNotFound(err) {
		return View{}, fmt.Errorf("cancel booking: %w", err)
	}
	current, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return View{}, common.NotFound("booking not found")
		}
		return View{}, fmt.Errorf("get booking: %w", err)
	}
	return View{}, common.Conflict("INVALID_STATUS", "only confirmed bookings can be cancelled", nil).
		WithDetails(map[string]any{"status": current.Status})
}

// ListFilter narrows the bookings of an item.
type ListFilter struct {
	Status *string
	From   *time.Time
	To     *time.Time
}

// List returns an item's bookings ordered by start time.
func (s *Service) List(ctx context.Context, itemID uuid.UUID, f ListFilter) ([]View, error) {
	if _, err := s.store.GetItem(ctx, itemID); err != nil {
		if db.IsNotFound(err) {
			return nil, common.NotFound("item not found")
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	rows, err := s.store.ListBookingsByItem(ctx, db.ListBookingsByItemParams{
		ItemID: itemID, Status: f.Status, From: f.From, To: f.To,
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	out := make([]View, 0, len(rows))
	for _, b := range rows {
		out = append(out, s.view(b))
	}
	return out, nil
}

// Slot is a free range inside an availability window.
type Slot struct {
	StartTime availability.Clock `json:"start_time"`
	EndTime   availability.Clock `json:"end_time"`
}

// Slots is the free-time listing of one item on one date.
type Slots struct {
	Date          string    `json:"date"`
	DayOfWeek     string    `json:"day_of_week"`
	ItemID        uuid.UUID `json:"item_id"`
	ItemName      string    `json:"item_name"`
	Message       string    `json:"message,omitempty"`
	AvailableDays []string  `json:"available_days,omitempty"`
	Slots         []Slot    `json:"slots"`
}

// AvailableSlots subtracts the date's bookings from the item's availability windows.
func (s *Service) AvailableSlots(ctx context.Context, itemID uuid.UUID, date string) (Slots, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return Slots{}, common.BadRequest("BAD_REQUEST", "date must be YYYY-MM-DD", err).
			WithDetails(map[string]any{"field": "date"})
	}
	ny, nm, nd := s.now().In(s.loc).Date()
	if day.Before(time.Date(ny, nm, nd, 0, 0, 0, 0, s.loc)) {
		return Slots{}, common.BadRequest("BAD_REQUEST", "cannot check availability for past dates", nil).
			WithDetails(map[string]any{"field": "date"})
	}

	chain, err := catalog.LoadChain(ctx, s.store, itemID)
	if err != nil {
		return Slots{}, err
	}
	if err := s.checkBookable(chain); err != nil {
		return Slots{}, err
	}
	days, windows, err := chain.Availability()
	if err != nil {
		return Slots{}, fmt.Errorf("decode availability: %w", err)
	}

	weekday := availability.DayOf(day)
	out := Slots{
		Date:      date,
		DayOfWeek: day.Weekday().String(),
		ItemID:    chain.Item.ID,
		ItemName:  chain.Item.Name,
		Slots:     []Slot{},
	}
	if !days.Has(weekday) {
		out.Message = "item is not available on this day"
		out.AvailableDays = days.Strings()
		return out, nil
	}
	if len(windows) == 0 {
		out.Message = "no time slots defined for this item"
		return out, nil
	}

	next := day.AddDate(0, 0, 1)
	booked, err := s.store.ListBookingsInRange(ctx, db.ListBookingsInRangeParams{ItemID: itemID, From: day, To: next})
	if err != nil {
		return Slots{}, fmt.Errorf("list bookings: %w", err)
	}
	busy := make([]Slot, 0, len(booked))
	for _, b := range booked {
		busy = append(busy, clip(b, day, next, s.loc))
	}
	out.Slots = freeSlots(windows, busy)
	return out, nil
}

// clip maps a booking onto the minutes of day. Parts outside the day are cut to its bounds
// and a partial end minute counts as busy.
func clip(b db.Booking, day, next time.Time, loc *time.Location) Slot {
	start := availability.Clock(0)
	if st := b.StartTime.In(loc); st.After(day) {
		start = availability.ClockOf(st)
	}
	end := availability.Clock(24 * 60)
	if et := b.EndTime.In(loc); et.Before(next) {
		end = availability.CeilClockOf(et)
	}
	return Slot{StartTime: start, EndTime: end}
}

func freeSlots(windows []availability.Window, busy []Slot) []Slot {
	sort.Slice(busy, func(i, j int) bool { return busy[i].StartTime < busy[j].StartTime })
	var out []Slot
	for _, w := range windows {
		cursor := w.Start
		for _, b := range busy {
			if b.EndTime <= cursor || b.StartTime >= w.End {
				continue
			}
			if b.StartTime > cursor {
				out = append(out, Slot{StartTime: cursor, EndTime: b.StartTime})
			}
			if b.EndTime > cursor {
				cursor = b.EndTime
			}
		}
		if cursor < w.End {
			out = append(out, Slot{StartTime: cursor, EndTime: w.End})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	if out == nil {
		out = []Slot{}
	}
	return out
}

// ActiveUsageHours returns the elapsed hours of the confirmed booking running at `at`, or nil.
func (s *Service) ActiveUsageHours(ctx context.Context, itemID uuid.UUID, at time.Time) (*float64, error) {
	b, err := s.store.FindActiveBooking(ctx, itemID, at)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active booking: %w", err)
	}
	hours := at.Sub(b.StartTime).Hours()
	return &hours, nil
}

// CompleteExpired marks confirmed bookings that have ended as completed.
func (s *Service) CompleteExpired(ctx context.Context) (int64, error) {
	n, err := s.store.CompleteExpiredBookings(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("complete expired bookings: %w", err)
	}
	obs.ObserveBookingsCompleted(n)
	return n, nil
}

// ParseListFilter reads status, from and to query values.
func (s *Service) ParseListFilter(status, from, to string) (ListFilter, error) {
	var f ListFilter
	if status != "" {
		switch status {
		case db.BookingConfirmed, db.BookingCancelled, db.BookingCompleted:
			f.Status = &status
		default:
			return f, common.BadRequest("BAD_REQUEST", "status must be confirmed, cancelled or completed", nil).
				WithDetails(map[string]any{"field": "status"})
		}
	}
	for _, p := range []struct {
		field string
		raw   string
		dst   **time.Time
	}{{"from", from, &f.From}, {"to", to, &f.To}} {
		if p.raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, p.raw)
		if err != nil {
			return f, common.BadRequest("BAD_REQUEST", p.field+" must be an RFC 3339 timestamp", err).
				WithDetails(map[string]any{"field": p.field})
		}
		*p.dst = &t
	}
	return f, nil
}
