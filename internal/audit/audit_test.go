package audit

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdg-garage/con-registration-api/internal/database"
	"github.com/gdg-garage/con-registration-api/internal/models"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	tr := New(db)
	tr.Now = func() time.Time { return time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC) }
	return tr
}

func TestTrack(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	groupID := models.NewID()
	a := &models.Attendee{FirstName: "Ada", LastName: "Lovelace", GroupID: &groupID, BadgeType: models.StaffBadge, BadgeNum: 6}
	a.EnsureID()

	t.Run("Created", func(t *testing.T) {
		entry, err := tr.Track(ctx, models.ActionCreated, a, nil, "admin")
		if err != nil {
			t.Fatalf("Track returned error: %v", err)
		}
		if entry.Model != "Attendee" || entry.FKID != a.ID || entry.Who != "admin" {
			t.Errorf("unexpected entry header: %+v", entry)
		}
		if entry.Which != "<Attendee Ada Lovelace>" {
			t.Errorf("unexpected which %q", entry.Which)
		}
		for _, want := range []string{`first_name="Ada"`, `badge_type="Staff"`, "badge_num=6"} {
			if !strings.Contains(entry.Data, want) {
				t.Errorf("expected data to contain %s, got %s", want, entry.Data)
			}
		}
		if entry.Links != "groups("+groupID+")" {
			t.Errorf("unexpected links %q", entry.Links)
		}
	})

	snap, err := tr.Snapshot(ctx, a)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	t.Run("NoChanges", func(t *testing.T) {
		entry, err := tr.Track(ctx, models.ActionUpdated, a, snap, "admin")
		if err != nil || entry != nil {
			t.Errorf("expected no entry for an unchanged row, got %+v (%v)", entry, err)
		}
	})

	t.Run("BadgeShift", func(t *testing.T) {
		shifted := *a
		shifted.BadgeNum = 7
		entry, err := tr.Track(ctx, models.ActionUpdated, &shifted, snap, "admin")
		if err != nil {
			t.Fatalf("Track returned error: %v", err)
		}
		if entry.Action != models.ActionAutoBadgeShift || entry.Data != "badge_num='6 -> 7'" {
			t.Errorf("unexpected entry %s: %s", entry.Action, entry.Data)
		}
	})

	t.Run("Updated", func(t *testing.T) {
		changed := *a
		changed.BadgeNum = 7
		changed.Ribbon = models.DeptHeadRibbon
		entry, err := tr.Track(ctx, models.ActionUpdated, &changed, snap, "admin")
		if err != nil {
			t.Fatalf("Track returned error: %v", err)
		}
		want := `badge_num='6 -> 7', ribbon='"no ribbon" -> "Department Head"'`
		if entry.Action != models.ActionUpdated || entry.Data != want {
			t.Errorf("expected %s, got %s: %s", want, entry.Action, entry.Data)
		}
	})

	t.Run("Deleted", func(t *testing.T) {
		entry, err := tr.Track(ctx, models.ActionDeleted, a, snap, "admin")
		if err != nil {
			t.Fatalf("Track returned error: %v", err)
		}
		if entry.Data != "id="+a.ID {
			t.Errorf("unexpected data %q", entry.Data)
		}
	})

	t.Run("Untracked", func(t *testing.T) {
		entry, err := tr.Track(ctx, models.ActionCreated, &models.Email{Subject: "Hello"}, nil, "admin")
		if err != nil || entry != nil {
			t.Errorf("expected emails to be untracked, got %+v (%v)", entry, err)
		}
	})
}

func TestTrackRedactsPasswords(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t)

	acct := &models.AdminAccount{AttendeeID: models.NewID()}
	acct.EnsureID()
	if err := acct.SetPassword("hunter2"); err != nil {
		t.Fatalf("SetPassword returned error: %v", err)
	}
	snap, err := tr.Snapshot(ctx, acct)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if err := acct.SetPassword("hunter3"); err != nil {
		t.Fatalf("SetPassword returned error: %v", err)
	}

	entry, err := tr.Track(ctx, models.ActionUpdated, acct, snap, "admin")
	if err != nil {
		t.Fatalf("Track returned error: %v", err)
	}
	if entry.Data != "hashed='<bcrypted> -> <bcrypted>'" {
		t.Errorf("expected the hash to be redacted, got %s", entry.Data)
	}
	if entry.Links != "attendees("+acct.AttendeeID+")" {
		t.Errorf("unexpected links %q", entry.Links)
	}
}

func TestTrackMalformedMultiChoice(t *testing.T) {
	tr := newTestTracker(t)
	a := &models.Attendee{FirstName: "Ada", AssignedDepts: "1,x"}
	a.EnsureID()

	_, err := tr.Track(context.Background(), models.ActionCreated, a, nil, "admin")
	if err == nil || !strings.Contains(err.Error(), "error formatting assigned_depts") {
		t.Errorf("expected a formatting error, got %v", err)
	}
}

func TestRepr(t *testing.T) {
	cases := []struct {
		column string
		value  any
		want   string
	}{
		{"first_name", "Ada", `"Ada"`},
		{"badge_num", 12, "12"},
		{"checked_in", nil, "null"},
		{"paid", models.HasPaid, `"Paid"`},
		{"amount_extra", models.DonationTier(17), `"<nonstandard>"`},
		{"registered", time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC), "2026-03-06T09:00:00Z"},
		{"hashed", "$2a$10$abc", "<bcrypted>"},
		{"nights", models.NewNightSet(models.Friday, models.Thursday), `"Thursday,Friday"`},
	}
	for _, tc := range cases {
		t.Run(tc.column, func(t *testing.T) {
			got, err := Repr(tc.column, tc.value)
			if err != nil {
				t.Fatalf("Repr returned error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Repr(%s) = %s, want %s", tc.column, got, tc.want)
			}
		})
	}
}
