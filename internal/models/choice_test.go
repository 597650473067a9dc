package models

import (
	"errors"
	"slices"
	"testing"
)

func TestChoice(t *testing.T) {
	t.Run("Parse", func(t *testing.T) {
		c, err := ParseChoice[badgeTypes]("2")
		if err != nil || c != StaffBadge {
			t.Errorf("expected Staff, got %v (%v)", c, err)
		}
		if _, err := ParseChoice[badgeTypes](" 2.0 "); err != nil {
			t.Errorf("expected float input to parse, got %v", err)
		}
		_, err = ParseChoice[badgeTypes]("99")
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, err := ParseChoice[badgeTypes]("staff"); !errors.As(err, &verr) {
			t.Errorf("expected ValidationError for non-numeric input, got %v", err)
		}
	})

	t.Run("AllowUnspecified", func(t *testing.T) {
		c, err := ParseChoice[donationTiers]("17")
		if err != nil || c.Int() != 17 {
			t.Errorf("expected any donation amount to be accepted, got %v (%v)", c, err)
		}
		if _, err := c.Label(); err == nil {
			t.Error("expected Label to fail for an unlabelled amount")
		}
		if c.String() != "<nonstandard>" {
			t.Errorf("unexpected String() %q", c.String())
		}
	})

	t.Run("Value", func(t *testing.T) {
		if _, err := BadgeType(42).Value(); err == nil {
			t.Error("expected Value to reject an unknown badge type")
		}
		v, err := GuestBadge.Value()
		if err != nil || v != int64(3) {
			t.Errorf("expected 3, got %v (%v)", v, err)
		}
	})

	t.Run("Scan", func(t *testing.T) {
		var r Ribbon
		for _, src := range []any{int64(2), "2", []byte("2"), float64(2)} {
			if err := r.Scan(src); err != nil || r != DeptHeadRibbon {
				t.Errorf("Scan(%#v) = %v (%v)", src, r, err)
			}
		}
		if err := r.Scan(nil); err != nil || r != NoRibbon {
			t.Errorf("Scan(nil) = %v (%v)", r, err)
		}
	})
}

func TestMultiChoice(t *testing.T) {
	t.Run("Canonical", func(t *testing.T) {
		m := ParseMultiChoice[departments](" 3,1,,3, 2 ")
		if string(m) != "1,2,3" {
			t.Errorf("expected 1,2,3, got %q", m)
		}
		if NewDepartments(SecurityDept, ArcadeDept) != NewMultiChoice[departments](1, 3) {
			t.Error("expected constructors to agree")
		}
	})

	t.Run("StaleValuesDropped", func(t *testing.T) {
		m := ParseMultiChoice[departments]("1,99,4")
		if got := m.Ints(); !slices.Equal(got, []int{1, 4}) {
			t.Errorf("expected 1,4, got %v", got)
		}
		if got := m.Labels(); !slices.Equal(got, []string{"Arcade", "Registration"}) {
			t.Errorf("unexpected labels %v", got)
		}
		if !m.Has(4) || m.Has(99) {
			t.Error("unexpected membership")
		}
	})

	t.Run("WithWithout", func(t *testing.T) {
		m := NewDepartments(ArcadeDept).With(int(PanelsDept)).With(int(ArcadeDept))
		if string(m) != "1,7" {
			t.Errorf("expected 1,7, got %q", m)
		}
		if string(m.Without(1)) != "7" {
			t.Errorf("expected 7, got %q", m.Without(1))
		}
	})

	t.Run("Display", func(t *testing.T) {
		s, err := NewNightSet(Friday, Thursday).Display()
		if err != nil || s != "Thursday,Friday" {
			t.Errorf("unexpected display %q (%v)", s, err)
		}
		if _, err := NightSet("3,x").Display(); err == nil {
			t.Error("expected a malformed value to fail")
		}
	})
}

func TestNights(t *testing.T) {
	p := DefaultPolicy()
	n := Nights{Set: NewNightSet(Monday, Thursday, Tuesday)}
	if got := NightsDisplay(n); got != "Tuesday / Thursday / Monday" {
		t.Errorf("unexpected display %q", got)
	}
	if !SetupTeardown(n, p) {
		t.Error("expected Tuesday and Monday to count as setup/teardown")
	}
	if SetupTeardown(Nights{Set: NewNightSet(Friday)}, p) {
		t.Error("expected a core night not to count")
	}

	h := &HotelRequest{Nights: n, Approved: true}
	if !h.ApprovedForSetup(p) || !h.ApprovedForTeardown(p) {
		t.Error("expected approval for both setup and teardown")
	}
	h.Decline(p)
	if got := NightsDisplay(h.Nights); got != "Thursday" {
		t.Errorf("expected only core nights after decline, got %q", got)
	}
	var none *HotelRequest
	if none.ApprovedForSetup(p) {
		t.Error("expected a missing request not to be approved")
	}
}

func TestFoodRestrictions(t *testing.T) {
	f := &FoodRestrictions{Standard: NewFoodRestrictionSet(Vegan, GlutenFree)}
	if f.Has(Vegetarian) {
		t.Error("vegans are not listed as vegetarian")
	}
	if !f.Has(NoPork) || !f.Has(GlutenFree) || !f.Has(Vegan) {
		t.Error("expected vegan, gluten-free and implied no pork")
	}
}

func TestAdminAccountPassword(t *testing.T) {
	a := &AdminAccount{}
	if err := a.SetPassword("hunter2"); err != nil {
		t.Fatalf("SetPassword returned error: %v", err)
	}
	if a.Hashed == "hunter2" || !a.CheckPassword("hunter2") || a.CheckPassword("hunter3") {
		t.Error("unexpected password check result")
	}
}
