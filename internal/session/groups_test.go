package session

import (
	"context"
	"testing"

	"github.com/gdg-garage/con-registration-api/internal/models"
)

func TestAssignBadges(t *testing.T) {
	st, _ := newTestStore(t, nil)
	ctx := context.Background()

	g := models.NewGroup("Rocket Science Club")
	s := st.Session("test")
	if err := s.Add(ctx, g); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	for _, name := range []string{"Ada", "Grace"} {
		a := newAttendee(name, "Member", models.AttendeeBadge, 0)
		a.Paid = models.PaidByGroup
		a.GroupID = &g.ID
		if err := s.Add(ctx, a); err != nil {
			t.Fatalf("Add returned error: %v", err)
		}
	}
	msg, err := s.AssignBadges(ctx, g, 7, models.AttendeeBadge)
	if err != nil || msg != "" {
		t.Fatalf("AssignBadges returned %q (%v)", msg, err)
	}
	if err := s.Commit(ctx); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	if g.Cost != 7*st.Policy().GroupPrice {
		t.Errorf("expected group cost to be recalculated, got %d", g.Cost)
	}

	members := func(t *testing.T) []*models.Attendee {
		t.Helper()
		ms, err := st.Session("test").GroupMembers(ctx, g.ID)
		if err != nil {
			t.Fatalf("GroupMembers returned error: %v", err)
		}
		return ms
	}
	if got := len(g.Floating(members(t))); got != 5 {
		t.Fatalf("expected 5 floating badges, got %d", got)
	}

	t.Run("Shrink", func(t *testing.T) {
		s := st.Session("test")
		loaded, err := s.Group(ctx, g.ID)
		if err != nil {
			t.Fatalf("Group returned error: %v", err)
		}
		msg, err := s.AssignBadges(ctx, loaded, 5, models.AttendeeBadge)
		if err != nil || msg != "" {
			t.Fatalf("AssignBadges returned %q (%v)", msg, err)
		}
		if err := s.Commit(ctx); err != nil {
			t.Fatalf("Commit returned error: %v", err)
		}
		ms := members(t)
		if len(ms) != 5 {
			t.Errorf("expected 5 badges, got %d", len(ms))
		}
		if got := len(loaded.Floating(ms)); got != 3 {
			t.Errorf("expected 3 floating badges, got %d", got)
		}
		named := 0
		for _, m := range ms {
			if !m.IsUnassigned() {
				named++
			}
		}
		if named != 2 {
			t.Errorf("expected named members untouched, got %d", named)
		}
	})

	t.Run("BelowAssigned", func(t *testing.T) {
		s := st.Session("test")
		loaded, err := s.Group(ctx, g.ID)
		if err != nil {
			t.Fatalf("Group returned error: %v", err)
		}
		msg, err := s.AssignBadges(ctx, loaded, 1, models.AttendeeBadge)
		if err != nil {
			t.Fatalf("AssignBadges returned error: %v", err)
		}
		if msg != msgBelowAssigned {
			t.Errorf("expected %q, got %q", msgBelowAssigned, msg)
		}
		if got := len(members(t)); got != 5 {
			t.Errorf("expected group unchanged, got %d badges", got)
		}
	})
}

func TestMatchToGroup(t *testing.T) {
	st, _ := newTestStore(t, nil)
	ctx := context.Background()

	g := models.NewGroup("Rocket Science Club")
	s := st.Session("test")
	if err := s.Add(ctx, g); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if msg, err := s.AssignBadges(ctx, g, 1, models.AttendeeBadge); err != nil || msg != "" {
		t.Fatalf("AssignBadges returned %q (%v)", msg, err)
	}
	if err := s.Commit(ctx); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}

	t.Run("WrongType", func(t *testing.T) {
		s := st.Session("test")
		walkUp := newAttendee("Ada", "Lovelace", models.StaffBadge, 5)
		msg, err := s.MatchToGroup(ctx, walkUp, g)
		if err != nil {
			t.Fatalf("MatchToGroup returned error: %v", err)
		}
		want := "Badge #5 is a Staff badge, but Rocket Science Club has no badges of that type"
		if msg != want {
			t.Errorf("expected %q, got %q", want, msg)
		}
	})

	t.Run("Claims", func(t *testing.T) {
		s := st.Session("test")
		walkUp := newAttendee("Grace", "Hopper", models.AttendeeBadge, 0)
		walkUp.Paid = models.NotPaid
		msg, err := s.MatchToGroup(ctx, walkUp, g)
		if err != nil || msg != "" {
			t.Fatalf("MatchToGroup returned %q (%v)", msg, err)
		}
		if walkUp.GroupID == nil || *walkUp.GroupID != g.ID {
			t.Error("expected walk-up to join the group")
		}
		if walkUp.Paid != models.PaidByGroup {
			t.Errorf("expected the group's payment to carry over, got %s", walkUp.Paid)
		}
		ms, err := st.Session("test").GroupMembers(ctx, g.ID)
		if err != nil {
			t.Fatalf("GroupMembers returned error: %v", err)
		}
		if len(ms) != 1 || ms[0].ID != walkUp.ID {
			t.Errorf("expected the floating badge to be replaced, got %v", ms)
		}
	})

	t.Run("Full", func(t *testing.T) {
		s := st.Session("test")
		msg, err := s.MatchToGroup(ctx, newAttendee("Alan", "Turing", models.AttendeeBadge, 0), g)
		if err != nil {
			t.Fatalf("MatchToGroup returned error: %v", err)
		}
		if msg != msgGroupFull {
			t.Errorf("expected %q, got %q", msgGroupFull, msg)
		}
	})
}

func TestDeleteFromGroup(t *testing.T) {
	st, _ := newTestStore(t, nil)
	ctx := context.Background()

	g := models.NewGroup("Rocket Science Club")
	commitAll(t, st, g)
	a := newAttendee("Ada", "Lovelace", models.AttendeeBadge, 0)
	a.Paid = models.PaidByGroup
	a.GroupID = &g.ID
	commitAll(t, st, a)

	s := st.Session("test")
	loaded, err := s.Attendee(ctx, a.ID)
	if err != nil {
		t.Fatalf("Attendee returned error: %v", err)
	}
	if err := s.DeleteFromGroup(ctx, loaded, g); err != nil {
		t.Fatalf("DeleteFromGroup returned error: %v", err)
	}
	if err := s.Commit(ctx); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	ms, err := st.Session("test").GroupMembers(ctx, g.ID)
	if err != nil {
		t.Fatalf("GroupMembers returned error: %v", err)
	}
	if len(ms) != 1 || !ms[0].IsUnassigned() || ms[0].Paid != models.PaidByGroup {
		t.Errorf("expected one floating badge in place of the member, got %v", ms)
	}
}
