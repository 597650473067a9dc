package session

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/gdg-garage/con-registration-api/internal/models"
	"gorm.io/gorm"
)

// Scope narrows a query the way gorm scopes do.
type Scope = func(*gorm.DB) *gorm.DB

func Where(query any, args ...any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

func Order(value any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(value)
	}
}

type modelPtr[T any] interface {
	*T
	models.Model
}

func tableOf[T any, PT modelPtr[T]]() string {
	return PT(new(T)).TableName()
}

// adopt swaps a freshly loaded row for the instance already in the identity
// map. Rows queued for deletion are hidden.
func (s *Session) adopt(ctx context.Context, m models.Model) (models.Model, bool, error) {
	if s.deletedKeys[keyOf(m)] {
		return nil, false, nil
	}
	e, err := s.register(ctx, m)
	if err != nil {
		return nil, false, err
	}
	return e.m, true, nil
}

// Find loads every matching row through the identity map.
func Find[T any, PT modelPtr[T]](ctx context.Context, s *Session, scopes ...Scope) ([]PT, error) {
	var rows []PT
	if err := s.db.WithContext(ctx).Scopes(scopes...).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find %s: %w", tableOf[T, PT](), err)
	}
	out := make([]PT, 0, len(rows))
	for _, r := range rows {
		m, ok, err := s.adopt(ctx, r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, m.(PT))
		}
	}
	return out, nil
}

// One expects exactly one matching row.
func One[T any, PT modelPtr[T]](ctx context.Context, s *Session, scopes ...Scope) (PT, error) {
	limit := func(db *gorm.DB) *gorm.DB { return db.Limit(2) }
	rows, err := Find[T, PT](ctx, s, append(scopes, limit)...)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("%s: %w", tableOf[T, PT](), ErrNotFound)
	case 1:
		return rows[0], nil
	}
	return nil, fmt.Errorf("%s: %w", tableOf[T, PT](), ErrMultipleFound)
}

// Get looks in the identity map before asking the database.
func Get[T any, PT modelPtr[T]](ctx context.Context, s *Session, id string) (PT, error) {
	k := key{table: tableOf[T, PT](), id: id}
	if s.deletedKeys[k] {
		return nil, fmt.Errorf("%s %s: %w", k.table, id, ErrNotFound)
	}
	if e, ok := s.entries[k]; ok {
		if m, ok := e.m.(PT); ok {
			return m, nil
		}
	}
	return One[T, PT](ctx, s, Where(k.table+".id = ?", id))
}

// collect merges database rows with rows added in this session, judging both
// by their in-memory state.
func collect[T any, PT modelPtr[T]](ctx context.Context, s *Session, match func(PT) bool, scopes ...Scope) ([]PT, error) {
	rows, err := Find[T, PT](ctx, s, scopes...)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(rows))
	var out []PT
	for _, r := range rows {
		seen[r.GetID()] = true
		if match(r) {
			out = append(out, r)
		}
	}
	for _, e := range s.live() {
		m, ok := e.m.(PT)
		if !ok || seen[m.GetID()] {
			continue
		}
		if match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Session) Attendee(ctx context.Context, id string) (*models.Attendee, error) {
	return Get[models.Attendee](ctx, s, id)
}

func (s *Session) Group(ctx context.Context, id string) (*models.Group, error) {
	return Get[models.Group](ctx, s, id)
}

func (s *Session) Job(ctx context.Context, id string) (*models.Job, error) {
	return Get[models.Job](ctx, s, id)
}

// GroupMembers is ordered by registration time; unsaved members come last.
func (s *Session) GroupMembers(ctx context.Context, groupID string) ([]*models.Attendee, error) {
	members, err := collect(ctx, s, func(a *models.Attendee) bool {
		return a.GroupID != nil && *a.GroupID == groupID
	}, Where("group_id = ?", groupID))
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(members, func(x, y *models.Attendee) int {
		switch {
		case x.Registered.IsZero() != y.Registered.IsZero():
			if x.Registered.IsZero() {
				return 1
			}
			return -1
		case !x.Registered.Equal(y.Registered):
			return x.Registered.Compare(y.Registered)
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return members, nil
}

func (s *Session) AttendeeShifts(ctx context.Context, attendeeID string) ([]*models.Shift, error) {
	return collect(ctx, s, func(sh *models.Shift) bool {
		return sh.AttendeeID == attendeeID
	}, Where("attendee_id = ?", attendeeID))
}

func (s *Session) JobShifts(ctx context.Context, jobID string) ([]*models.Shift, error) {
	return collect(ctx, s, func(sh *models.Shift) bool {
		return sh.JobID == jobID
	}, Where("job_id = ?", jobID))
}

// HotelRequest returns nil when the attendee has not asked for a room.
func (s *Session) HotelRequest(ctx context.Context, attendeeID string) (*models.HotelRequest, error) {
	reqs, err := collect(ctx, s, func(h *models.HotelRequest) bool {
		return h.AttendeeID == attendeeID
	}, Where("attendee_id = ?", attendeeID))
	if err != nil || len(reqs) == 0 {
		return nil, err
	}
	return reqs[0], nil
}

// Details lists the one-to-one records owned by an attendee.
func (s *Session) Details(ctx context.Context, attendeeID string) ([]models.Model, error) {
	var out []models.Model

	hotel, err := collect(ctx, s, func(h *models.HotelRequest) bool {
		return h.AttendeeID == attendeeID
	}, Where("attendee_id = ?", attendeeID))
	if err != nil {
		return nil, err
	}
	for _, h := range hotel {
		out = append(out, h)
	}

	food, err := collect(ctx, s, func(f *models.FoodRestrictions) bool {
		return f.AttendeeID == attendeeID
	}, Where("attendee_id = ?", attendeeID))
	if err != nil {
		return nil, err
	}
	for _, f := range food {
		out = append(out, f)
	}

	accounts, err := collect(ctx, s, func(a *models.AdminAccount) bool {
		return a.AttendeeID == attendeeID
	}, Where("attendee_id = ?", attendeeID))
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		out = append(out, a)
	}
	return out, nil
}
