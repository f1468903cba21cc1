package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	items     ItemRepository
	schedules ScheduleRepository
}

func NewService(items ItemRepository, schedules ScheduleRepository) *Service {
	return &Service{items: items, schedules: schedules}
}

var validFreqTypes = map[string]bool{
	FreqDaily: true, FreqSpecificDays: true, FreqWeekly: true,
}

// -- Items --

func (s *Service) CreateItem(ctx context.Context, item *Item) error {
	if item.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if item.Name == "" {
		return fmt.Errorf("name is required")
	}
	item.IsActive = true
	return s.items.Create(ctx, item)
}

func (s *Service) GetItem(ctx context.Context, userID, id uuid.UUID) (*Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, fmt.Errorf("item not found")
	}
	return item, nil
}

func (s *Service) ListItems(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Item, int, error) {
	return s.items.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) UpdateItem(ctx context.Context, userID uuid.UUID, item *Item) error {
	existing, err := s.GetItem(ctx, userID, item.ID)
	if err != nil {
		return err
	}
	if item.Name == "" {
		return fmt.Errorf("name is required")
	}
	item.UserID = existing.UserID
	return s.items.Update(ctx, item)
}

func (s *Service) DeactivateItem(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.GetItem(ctx, userID, id); err != nil {
		return err
	}
	return s.items.Deactivate(ctx, id)
}

// -- Schedules --

// normalizeTimes validates, deduplicates and orders wall-clock times. Entries
// must parse as HH:MM.
func normalizeTimes(times []string) ([]string, error) {
	seen := make(map[string]bool, len(times))
	var out []string
	for _, tm := range times {
		if _, err := time.Parse("15:04", tm); err != nil {
			return nil, fmt.Errorf("invalid time %q: must be HH:MM", tm)
		}
		if seen[tm] {
			continue
		}
		seen[tm] = true
		out = append(out, tm)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) validateSchedule(sched *Schedule) error {
	if !validFreqTypes[sched.FreqType] {
		return fmt.Errorf("invalid freq_type: %s", sched.FreqType)
	}
	times, err := normalizeTimes(sched.Times)
	if err != nil {
		return err
	}
	sched.Times = times

	if sched.FreqType == FreqSpecificDays || sched.FreqType == FreqWeekly {
		if len(sched.DaysOfWeek) == 0 {
			return fmt.Errorf("days_of_week is required for freq_type %s", sched.FreqType)
		}
		for _, d := range sched.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("invalid weekday %d: must be 0 (Sunday) to 6 (Saturday)", d)
			}
		}
	} else {
		sched.DaysOfWeek = nil
	}
	return nil
}

func (s *Service) CreateSchedule(ctx context.Context, userID uuid.UUID, sched *Schedule) error {
	if sched.ItemID == uuid.Nil {
		return fmt.Errorf("item_id is required")
	}
	// Ownership check: the item must belong to the caller.
	if _, err := s.GetItem(ctx, userID, sched.ItemID); err != nil {
		return err
	}
	if err := s.validateSchedule(sched); err != nil {
		return err
	}
	sched.IsActive = true
	return s.schedules.Create(ctx, sched)
}

func (s *Service) GetSchedule(ctx context.Context, userID, id uuid.UUID) (*Schedule, error) {
	sched, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetItem(ctx, userID, sched.ItemID); err != nil {
		return nil, fmt.Errorf("schedule not found")
	}
	return sched, nil
}

func (s *Service) ListSchedules(ctx context.Context, userID, itemID uuid.UUID) ([]*Schedule, error) {
	if _, err := s.GetItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	return s.schedules.ListByItem(ctx, itemID)
}

func (s *Service) UpdateSchedule(ctx context.Context, userID uuid.UUID, sched *Schedule) error {
	existing, err := s.GetSchedule(ctx, userID, sched.ID)
	if err != nil {
		return err
	}
	sched.ItemID = existing.ItemID
	if err := s.validateSchedule(sched); err != nil {
		return err
	}
	return s.schedules.Update(ctx, sched)
}

func (s *Service) DeactivateSchedule(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.GetSchedule(ctx, userID, id); err != nil {
		return err
	}
	return s.schedules.Deactivate(ctx, id)
}

// ListActive exposes the engine's read path: every active schedule joined
// with its active item, optionally narrowed to one user.
func (s *Service) ListActive(ctx context.Context, userID *uuid.UUID) ([]*ActiveSchedule, error) {
	return s.schedules.ListActive(ctx, userID)
}
