package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/gdg-garage/con-registration-api/internal/models"
)

var (
	ErrInvalidShiftDirection = errors.New("badge shift must go either up or down")
	ErrShiftingDisabled      = errors.New("badge shifting is disabled")
)

const (
	msgBadgeUpdated    = "Badge updated"
	msgOutOfRange      = "That badge number is out of range for that badge type"
	msgNoMoreBadges    = "There are no more badges available for that type"
	msgBadgeTaken      = "That badge number already belongs to %q"
	msgBadgeDowngraded = "That badge number was too high, so the next available badge was assigned instead"
)

// BadgeChange is the outcome of ChangeBadge. A non-empty Failure means no
// change was made; Warning accompanies a change that differs from the request.
type BadgeChange struct {
	Failure string
	Warning string
}

func (c BadgeChange) OK() bool {
	return c.Failure == ""
}

func (c BadgeChange) Message() string {
	switch {
	case c.Failure != "":
		return c.Failure
	case c.Warning != "":
		return c.Warning
	}
	return msgBadgeUpdated
}

// sessionAttendees yields the live attendees held by the identity map.
func (s *Session) sessionAttendees() []*models.Attendee {
	var out []*models.Attendee
	for _, e := range s.live() {
		if a, ok := e.m.(*models.Attendee); ok {
			out = append(out, a)
		}
	}
	return out
}

func (s *Session) sessionIDs(table string) []string {
	var ids []string
	for k := range s.entries {
		if k.table == table {
			ids = append(ids, k.id)
		}
	}
	for k := range s.deletedKeys {
		if k.table == table && s.entries[k] == nil {
			ids = append(ids, k.id)
		}
	}
	return ids
}

// maxAssigned is the highest number of type t in r, counting rows this session
// has changed but not yet written.
func (s *Session) maxAssigned(ctx context.Context, t models.BadgeType, r models.Range) (int, error) {
	q := s.db.WithContext(ctx).Model(&models.Attendee{}).
		Select("MAX(badge_num)").
		Where("badge_type = ? AND badge_num BETWEEN ? AND ?", t, r.Lo, r.Hi)
	if ids := s.sessionIDs("attendees"); len(ids) > 0 {
		q = q.Where("id NOT IN ?", ids)
	}
	var hi sql.NullInt64
	if err := q.Row().Scan(&hi); err != nil {
		return 0, fmt.Errorf("max badge for %s: %w", t, err)
	}
	highest := int(hi.Int64)
	for _, a := range s.sessionAttendees() {
		if a.BadgeType == t && r.Contains(a.BadgeNum) {
			highest = max(highest, a.BadgeNum)
		}
	}
	return highest, nil
}

// NextBadgeNum returns the number the next badge of type t should get. A row
// already holding the top number of its range (old) keeps it. Types that are
// not preassigned get 0. The badge lock is held from here until the session
// commits.
func (s *Session) NextBadgeNum(ctx context.Context, t models.BadgeType, old int) (int, error) {
	r, ok := s.Policy().Range(t)
	if !ok || !s.Policy().IsPreassigned(t) {
		return 0, nil
	}
	if err := s.acquireLock(ctx); err != nil {
		return 0, err
	}
	highest, err := s.maxAssigned(ctx, t, r)
	if err != nil {
		return 0, err
	}
	var next int
	switch {
	case highest == 0:
		next = r.Lo
	case old != 0 && old == highest:
		next = old
	default:
		next = highest + 1
	}
	if next > r.Hi && !slices.Contains(s.exhausted, t) {
		s.exhausted = append(s.exhausted, t)
	}
	return next, nil
}

// ShiftBadges moves every numbered badge of type t in [from, until] one step
// in dir. until 0 means the top of the range.
func (s *Session) ShiftBadges(ctx context.Context, t models.BadgeType, from, until int, dir models.Direction) error {
	if dir != models.Up && dir != models.Down {
		return fmt.Errorf("%w: %d", ErrInvalidShiftDirection, dir)
	}
	p := s.Policy()
	if !p.ShiftCustomBadges {
		return ErrShiftingDisabled
	}
	if until == 0 {
		if r, ok := p.Range(t); ok {
			until = r.Hi
		} else {
			until = p.MaxBadge()
		}
	}
	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	if _, err := Find[models.Attendee](ctx, s,
		Where("badge_type = ? AND badge_num BETWEEN ? AND ?", t, from, until)); err != nil {
		return err
	}
	for _, a := range s.sessionAttendees() {
		if a.BadgeType == t && a.BadgeNum != 0 && a.BadgeNum >= from && a.BadgeNum <= until {
			a.BadgeNum += int(dir)
		}
	}
	return nil
}

// holderOf finds another live attendee holding num of type t.
func (s *Session) holderOf(ctx context.Context, t models.BadgeType, num int, except *models.Attendee) (*models.Attendee, error) {
	holders, err := collect(ctx, s, func(a *models.Attendee) bool {
		return a.BadgeType == t && a.BadgeNum == num && a.ID != except.ID
	}, Where("badge_type = ? AND badge_num = ?", t, num))
	if err != nil || len(holders) == 0 {
		return nil, err
	}
	return holders[0], nil
}

// taken fails when another attendee already holds num of type t.
func (s *Session) taken(ctx context.Context, t models.BadgeType, num int, a *models.Attendee) (BadgeChange, error) {
	holder, err := s.holderOf(ctx, t, num, a)
	if err != nil || holder == nil {
		return BadgeChange{}, err
	}
	return BadgeChange{Failure: fmt.Sprintf(msgBadgeTaken, holder.FullName())}, nil
}

// vacate gives back a personalized number so the rest of its range closes up.
func (s *Session) vacate(ctx context.Context, a *models.Attendee) error {
	num := a.BadgeNum
	a.BadgeNum = 0
	if num == 0 || !s.Policy().ShiftCustomBadges || !a.HasPersonalizedBadge(s.Policy()) {
		return nil
	}
	return s.ShiftBadges(ctx, a.BadgeType, num, 0, models.Down)
}

// ChangeBadge moves a to badge type t and, when t is numbered, to number num
// (0 picks the next free number). It commits on success.
func (s *Session) ChangeBadge(ctx context.Context, a *models.Attendee, t models.BadgeType, num int) (BadgeChange, error) {
	if err := s.Add(ctx, a); err != nil {
		return BadgeChange{}, err
	}
	var change BadgeChange
	err := s.underLock(ctx, func() (bool, error) {
		var err error
		change, err = s.changeBadge(ctx, a, t, num)
		return change.OK(), err
	})
	return change, err
}

func (s *Session) changeBadge(ctx context.Context, a *models.Attendee, t models.BadgeType, num int) (BadgeChange, error) {
	p := s.Policy()
	r, ranged := p.Range(t)
	if num != 0 && (!ranged || !r.Contains(num)) {
		return BadgeChange{Failure: msgOutOfRange}, nil
	}

	typeChanged := a.BadgeType != t
	old := a.BadgeNum
	if typeChanged {
		old = 0
	}

	if !ranged || !p.IsPreassigned(t) && a.CheckedIn == nil {
		if err := s.vacate(ctx, a); err != nil {
			return BadgeChange{}, err
		}
		a.BadgeType = t
		return BadgeChange{}, nil
	}
	if !p.IsPreassigned(t) {
		// checked in with a badge that has no sequence: the printed number is
		// entered by hand
		if num != 0 {
			if taken, err := s.taken(ctx, t, num, a); err != nil || !taken.OK() {
				return taken, err
			}
		}
		if typeChanged {
			if err := s.vacate(ctx, a); err != nil {
				return BadgeChange{}, err
			}
		}
		a.BadgeType = t
		if num != 0 {
			a.BadgeNum = num
		}
		return BadgeChange{}, nil
	}

	next, err := s.NextBadgeNum(ctx, t, old)
	if err != nil {
		return BadgeChange{}, err
	}

	if num == 0 {
		if old != 0 {
			return BadgeChange{}, nil
		}
		if next > r.Hi {
			return BadgeChange{Failure: msgNoMoreBadges}, nil
		}
		if err := s.vacate(ctx, a); err != nil {
			return BadgeChange{}, err
		}
		a.BadgeType, a.BadgeNum = t, next
		return BadgeChange{}, nil
	}

	if !p.ShiftCustomBadges {
		if taken, err := s.taken(ctx, t, num, a); err != nil || !taken.OK() {
			return taken, err
		}
		a.BadgeType, a.BadgeNum = t, num
		return BadgeChange{}, nil
	}

	ceiling := next
	switch {
	case old == 0 && next > r.Hi:
		return BadgeChange{Failure: msgNoMoreBadges}, nil
	case old != 0 && old != next:
		ceiling = next - 1
	}

	var change BadgeChange
	target := min(num, ceiling)
	if num > ceiling {
		change.Warning = msgBadgeDowngraded
	}

	if typeChanged {
		if err := s.vacate(ctx, a); err != nil {
			return BadgeChange{}, err
		}
	}
	switch {
	case old == 0:
		if target < next {
			err = s.ShiftBadges(ctx, t, target, next-1, models.Up)
		}
	case old < target:
		err = s.ShiftBadges(ctx, t, old, target, models.Down)
	case old > target:
		err = s.ShiftBadges(ctx, t, target, old, models.Up)
	}
	if err != nil {
		return BadgeChange{}, err
	}
	a.BadgeType, a.BadgeNum = t, target
	return change, nil
}
