package session

import (
	"context"
	"fmt"

	"github.com/gdg-garage/con-registration-api/internal/models"
)

const (
	msgBelowAssigned   = "You cannot reduce the number of badges for a group to below the number of assigned badges"
	msgGroupFull       = "The last badge for that group has already been assigned by another station"
	msgNoMatchingBadge = "Badge #%d is a %s badge, but %s has no badges of that type"
)

// AssignBadges grows or shrinks g to count badges. New badges are paid by the
// group and unassigned; shrinking removes the most recently added floating
// badges. The caller commits.
func (s *Session) AssignBadges(ctx context.Context, g *models.Group, count int, t models.BadgeType) (string, error) {
	if err := s.Add(ctx, g); err != nil {
		return "", err
	}
	members, err := s.GroupMembers(ctx, g.ID)
	if err != nil {
		return "", err
	}

	diff := count - len(members)
	switch {
	case diff > 0:
		ribbon := g.NewRibbon(members)
		for range diff {
			groupID := g.ID
			a := &models.Attendee{
				GroupID:   &groupID,
				BadgeType: t,
				Ribbon:    ribbon,
				Paid:      models.PaidByGroup,
			}
			if err := s.Add(ctx, a); err != nil {
				return "", err
			}
		}
	case diff < 0:
		floating := g.Floating(members)
		if len(floating) < -diff {
			return msgBelowAssigned, nil
		}
		for _, a := range floating[len(floating)+diff:] {
			s.Delete(a)
		}
	}
	s.Touch(g)
	return "", nil
}

// DeleteFromGroup removes a from its group. A badge the group paid for stays
// with the group as a floating badge.
func (s *Session) DeleteFromGroup(ctx context.Context, a *models.Attendee, g *models.Group) error {
	if err := s.Add(ctx, g); err != nil {
		return err
	}
	if a.Paid == models.PaidByGroup {
		groupID := g.ID
		replacement := &models.Attendee{
			GroupID:   &groupID,
			BadgeType: a.BadgeType,
			Ribbon:    a.Ribbon,
			Paid:      models.PaidByGroup,
		}
		if err := s.Add(ctx, replacement); err != nil {
			return err
		}
	}
	s.Delete(a)
	s.Touch(g)
	return nil
}

// MatchToGroup claims one of g's unassigned badges for the walk-up attendee
// a and commits.
func (s *Session) MatchToGroup(ctx context.Context, a *models.Attendee, g *models.Group) (string, error) {
	var msg string
	err := s.underLock(ctx, func() (bool, error) {
		if err := s.Add(ctx, g); err != nil {
			return false, err
		}
		members, err := s.GroupMembers(ctx, g.ID)
		if err != nil {
			return false, err
		}
		var available, matching []*models.Attendee
		for _, m := range members {
			if !m.IsUnassigned() || m.ID == a.ID {
				continue
			}
			available = append(available, m)
			if m.BadgeType == a.BadgeType {
				matching = append(matching, m)
			}
		}
		switch {
		case len(available) == 0:
			msg = msgGroupFull
			return false, nil
		case len(matching) == 0:
			msg = fmt.Sprintf(msgNoMatchingBadge, a.BadgeNum, a.BadgeType, g.Name)
			return false, nil
		}

		slot := matching[0]
		groupID := g.ID
		a.GroupID = &groupID
		a.Paid = slot.Paid
		a.AmountPaid = slot.AmountPaid
		a.Ribbon = slot.Ribbon
		s.Delete(slot)
		if err := s.Add(ctx, a); err != nil {
			return false, err
		}
		s.Touch(g)
		return true, nil
	})
	return msg, err
}
