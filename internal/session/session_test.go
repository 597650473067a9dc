package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdg-garage/con-registration-api/internal/database"
	"github.com/gdg-garage/con-registration-api/internal/lock"
	"github.com/gdg-garage/con-registration-api/internal/models"
)

func newTestStore(t *testing.T, policy *models.Policy) (*Store, *lock.Local) {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "registration.db"))
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if policy == nil {
		policy = models.DefaultPolicy()
	}
	locker := lock.NewLocal()
	return NewStore(db, locker, policy), locker
}

func newAttendee(first, last string, bt models.BadgeType, num int) *models.Attendee {
	return &models.Attendee{
		FirstName: first,
		LastName:  last,
		BadgeType: bt,
		BadgeNum:  num,
		Paid:      models.HasPaid,
	}
}

func commitAll(t *testing.T, st *Store, ms ...models.Model) {
	t.Helper()
	ctx := context.Background()
	s := st.Session("test")
	for _, m := range ms {
		if err := s.Add(ctx, m); err != nil {
			t.Fatalf("Add(%v) returned error: %v", m, err)
		}
	}
	if err := s.Commit(ctx); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
}

func badgeNums(t *testing.T, st *Store, bt models.BadgeType) []int {
	t.Helper()
	var nums []int
	err := st.DB().Model(&models.Attendee{}).
		Where("badge_type = ? AND badge_num <> 0", bt).
		Order("badge_num").
		Pluck("badge_num", &nums).Error
	if err != nil {
		t.Fatalf("failed to read badge numbers: %v", err)
	}
	return nums
}

func assertLockFree(t *testing.T, locker *lock.Local) {
	t.Helper()
	if !locker.TryLock() {
		t.Fatal("expected the badge lock to be free")
	}
	locker.Unlock(context.Background())
}

func TestSessionIdentity(t *testing.T) {
	st, _ := newTestStore(t, nil)
	ctx := context.Background()
	a := newAttendee("Ada", "Lovelace", models.AttendeeBadge, 0)
	commitAll(t, st, a)

	s := st.Session("test")
	first, err := s.Attendee(ctx, a.ID)
	if err != nil {
		t.Fatalf("Attendee returned error: %v", err)
	}
	second, err := s.Attendee(ctx, a.ID)
	if err != nil {
		t.Fatalf("Attendee returned error: %v", err)
	}
	if first != second {
		t.Error("expected the same instance for repeated lookups")
	}
	if !first.Equal(a) {
		t.Error("expected persisted rows with the same id to be equal")
	}
	if first.Equal(newAttendee("Ada", "Lovelace", models.AttendeeBadge, 0)) {
		t.Error("expected a new row never to be equal")
	}

	t.Run("NotFound", func(t *testing.T) {
		_, err := s.Attendee(ctx, models.NewID())
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("MultipleFound", func(t *testing.T) {
		commitAll(t, st, newAttendee("Grace", "Hopper", models.AttendeeBadge, 0),
			newAttendee("Grace", "Kelly", models.AttendeeBadge, 0))
		_, err := One[models.Attendee](ctx, s, Where("first_name = ?", "Grace"))
		if !errors.Is(err, ErrMultipleFound) {
			t.Errorf("expected ErrMultipleFound, got %v", err)
		}
	})

	t.Run("OrigValueOf", func(t *testing.T) {
		first.LastName = "King"
		v, err := s.OrigValueOf(first, "last_name")
		if err != nil {
			t.Fatalf("OrigValueOf returned error: %v", err)
		}
		if v != "Lovelace" {
			t.Errorf("expected committed last name, got %v", v)
		}
		if _, err := s.OrigValueOf(newAttendee("X", "Y", models.AttendeeBadge, 0), "last_name"); !errors.Is(err, ErrNoOriginal) {
			t.Errorf("expected ErrNoOriginal for a new row, got %v", err)
		}
	})
}

func TestCommitAudit(t *testing.T) {
	st, _ := newTestStore(t, nil)
	ctx := context.Background()
	a := newAttendee("Ada", "Lovelace", models.AttendeeBadge, 0)
	commitAll(t, st, a)

	t.Run("RevertedChangesAreNotLogged", func(t *testing.T) {
		s := st.Session("test")
		loaded, err := s.Attendee(ctx, a.ID)
		if err != nil {
			t.Fatalf("Attendee returned error: %v", err)
		}
		loaded.FirstName = "Augusta"
		loaded.FirstName = "Ada"
		if err := s.Commit(ctx); err != nil {
			t.Fatalf("Commit returned error: %v", err)
		}
		history, err := s.History(ctx, a.ID)
		if err != nil {
			t.Fatalf("History returned error: %v", err)
		}
		if len(history) != 1 || history[0].Action != models.ActionCreated {
			t.Fatalf("expected only the created entry, got %+v", history)
		}
		if !strings.Contains(history[0].Data, `first_name="Ada"`) {
			t.Errorf("expected created entry to list every column, got %q", history[0].Data)
		}
	})

	t.Run("UpdateIsLogged", func(t *testing.T) {
		s := st.Session("admin@example.com")
		loaded, err := s.Attendee(ctx, a.ID)
		if err != nil {
			t.Fatalf("Attendee returned error: %v", err)
		}
		loaded.FirstName = "Augusta"
		if err := s.Commit(ctx); err != nil {
			t.Fatalf("Commit returned error: %v", err)
		}
		history, err := s.History(ctx, a.ID)
		if err != nil {
			t.Fatalf("History returned error: %v", err)
		}
		last := history[len(history)-1]
		if last.Action != models.ActionUpdated {
			t.Errorf("expected updated entry, got %v", last.Action)
		}
		if last.Data != `first_name='"Ada" -> "Augusta"'` {
			t.Errorf("unexpected diff %q", last.Data)
		}
		if last.Who != "admin@example.com" {
			t.Errorf("expected actor to be recorded, got %q", last.Who)
		}
	})

	t.Run("DeleteIsLogged", func(t *testing.T) {
		s := st.Session("test")
		loaded, err := s.Attendee(ctx, a.ID)
		if err != nil {
			t.Fatalf("Attendee returned error: %v", err)
		}
		s.Delete(loaded)
		if err := s.Commit(ctx); err != nil {
			t.Fatalf("Commit returned error: %v", err)
		}
		history, err := s.History(ctx, a.ID)
		if err != nil {
			t.Fatalf("History returned error: %v", err)
		}
		last := history[len(history)-1]
		if last.Action != models.ActionDeleted || last.Data != "id="+a.ID {
			t.Errorf("unexpected delete entry %+v", last)
		}
		if _, err := s.Attendee(ctx, a.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected deleted attendee to be gone, got %v", err)
		}
	})
}

func TestCommitValidatesChoices(t *testing.T) {
	st, locker := newTestStore(t, nil)
	ctx := context.Background()
	s := st.Session("test")
	if err := s.Add(ctx, &models.Job{Name: "Nowhere", Duration: 1, Slots: 1}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	err := s.Commit(ctx)
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a ValidationError for a job without a location, got %v", err)
	}
	assertLockFree(t, locker)
}

func TestCommitReleasesLock(t *testing.T) {
	policy := models.DefaultPolicy()

	t.Run("Success", func(t *testing.T) {
		st, locker := newTestStore(t, policy)
		commitAll(t, st, newAttendee("Ada", "Lovelace", models.StaffBadge, 0))
		assertLockFree(t, locker)
	})

	t.Run("FailingHook", func(t *testing.T) {
		st, locker := newTestStore(t, policy)
		ctx := context.Background()
		s := st.Session("test")
		boom := errors.New("boom")
		s.BeforeFlush(func(ctx context.Context, s *Session) error {
			if !s.lockHeld {
				t.Error("expected the lock to be held after badge adjustments")
			}
			return boom
		})
		a := newAttendee("Ada", "Lovelace", models.StaffBadge, 0)
		if err := s.Add(ctx, a); err != nil {
			t.Fatalf("Add returned error: %v", err)
		}
		if err := s.Commit(ctx); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if a.BadgeNum != 1 {
			t.Errorf("expected badge adjustments to have run, got %d", a.BadgeNum)
		}
		assertLockFree(t, locker)
		if got := badgeNums(t, st, models.StaffBadge); len(got) != 0 {
			t.Errorf("expected nothing written, got %v", got)
		}
	})

	t.Run("StorageError", func(t *testing.T) {
		st, locker := newTestStore(t, policy)
		ctx := context.Background()
		a := newAttendee("Ada", "Lovelace", models.AttendeeBadge, 0)
		commitAll(t, st, a)

		s := st.Session("test")
		for range 2 {
			if err := s.Add(ctx, &models.HotelRequest{AttendeeID: a.ID}); err != nil {
				t.Fatalf("Add returned error: %v", err)
			}
		}
		if err := s.Commit(ctx); err == nil {
			t.Fatal("expected duplicate hotel requests to fail")
		}
		assertLockFree(t, locker)
	})

	t.Run("Panic", func(t *testing.T) {
		st, locker := newTestStore(t, policy)
		s := st.Session("test")
		s.BeforeFlush(func(ctx context.Context, s *Session) error {
			panic("hook exploded")
		})
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Error("expected the panic to propagate")
				}
			}()
			s.Commit(context.Background())
		}()
		assertLockFree(t, locker)
	})
}

func TestDeleteCascades(t *testing.T) {
	st, _ := newTestStore(t, nil)
	ctx := context.Background()

	g := models.NewGroup("Dealers")
	a := newAttendee("Ada", "Lovelace", models.AttendeeBadge, 0)
	commitAll(t, st, g)
	a.GroupID = &g.ID
	commitAll(t, st, a, &models.HotelRequest{AttendeeID: a.ID}, &models.FoodRestrictions{AttendeeID: a.ID})

	t.Run("AttendeeDetails", func(t *testing.T) {
		s := st.Session("test")
		loaded, err := s.Attendee(ctx, a.ID)
		if err != nil {
			t.Fatalf("Attendee returned error: %v", err)
		}
		details, err := s.Details(ctx, a.ID)
		if err != nil {
			t.Fatalf("Details returned error: %v", err)
		}
		if len(details) != 2 {
			t.Fatalf("expected hotel and food details, got %d", len(details))
		}
		s.Delete(loaded)
		if err := s.Commit(ctx); err != nil {
			t.Fatalf("Commit returned error: %v", err)
		}
		var count int64
		st.DB().Model(&models.HotelRequest{}).Count(&count)
		if count != 0 {
			t.Errorf("expected hotel request to be deleted, got %d", count)
		}
		st.DB().Model(&models.FoodRestrictions{}).Count(&count)
		if count != 0 {
			t.Errorf("expected food restrictions to be deleted, got %d", count)
		}
	})

	t.Run("GroupKeepsMembers", func(t *testing.T) {
		b := newAttendee("Grace", "Hopper", models.AttendeeBadge, 0)
		b.GroupID = &g.ID
		commitAll(t, st, b)

		s := st.Session("test")
		loaded, err := s.Group(ctx, g.ID)
		if err != nil {
			t.Fatalf("Group returned error: %v", err)
		}
		s.Delete(loaded)
		if err := s.Commit(ctx); err != nil {
			t.Fatalf("Commit returned error: %v", err)
		}
		member, err := st.Session("test").Attendee(ctx, b.ID)
		if err != nil {
			t.Fatalf("expected member to outlive the group: %v", err)
		}
		if member.GroupID != nil {
			t.Errorf("expected group reference to be cleared, got %v", *member.GroupID)
		}
	})
}
