package scheduling

import (
	"testing"
	"time"

	"github.com/gdg-garage/con-registration-api/internal/models"
)

var start = time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)

func job(id string, loc models.Department, offset, duration int) *models.Job {
	j := &models.Job{Name: id, Location: loc, StartTime: start.Add(time.Duration(offset) * time.Hour), Duration: duration, Weight: 1, Slots: 2}
	j.ID = id
	return j
}

func committed(jobs ...*models.Job) []Commitment {
	cs := make([]Commitment, len(jobs))
	for i, j := range jobs {
		cs[i] = Commitment{Shift: &models.Shift{JobID: j.ID}, Job: j}
	}
	return cs
}

func TestNoOverlap(t *testing.T) {
	morning := job("morning", models.ArcadeDept, 0, 2)

	cases := []struct {
		name string
		job  *models.Job
		cs   []Commitment
		want bool
	}{
		{"Empty", job("a", models.ArcadeDept, 0, 2), nil, true},
		{"IdenticalHours", job("a", models.ConsoleDept, 0, 2), committed(morning), false},
		{"PartialOverlap", job("a", models.ArcadeDept, 1, 2), committed(morning), false},
		{"AbuttingAfter", job("a", models.ConsoleDept, 2, 1), committed(morning), true},
		{"AbuttingBefore", job("a", models.ConsoleDept, -1, 1), committed(morning), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NoOverlap(tc.job, tc.cs); got != tc.want {
				t.Errorf("NoOverlap = %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("Extra15", func(t *testing.T) {
		over := job("over", models.ArcadeDept, 0, 2)
		over.Extra15 = true
		if NoOverlap(job("a", models.ConsoleDept, 2, 1), committed(over)) {
			t.Error("expected a run-over into another room to conflict")
		}
		if !NoOverlap(job("a", models.ArcadeDept, 2, 1), committed(over)) {
			t.Error("expected a run-over in the same room to be fine")
		}
		before := job("before", models.ConsoleDept, -1, 1)
		before.Extra15 = true
		if NoOverlap(before, committed(morning)) {
			t.Error("expected a new job running over into another room to conflict")
		}
	})
}

func TestHours(t *testing.T) {
	a := &models.Attendee{NonshiftHours: 2}
	heavy := job("heavy", models.ArcadeDept, 0, 2)
	heavy.Weight = 2
	light := job("light", models.ArcadeDept, 3, 1)
	light.Extra15 = true
	cs := committed(heavy, light)
	cs[0].Shift.Worked = models.ShiftWorked

	if got := WeightedHours(a, cs); got != 4+1.25+2 {
		t.Errorf("unexpected weighted hours %v", got)
	}
	if got := WorkedHours(a, cs); got != 4+2 {
		t.Errorf("unexpected worked hours %v", got)
	}
	if !HasShiftsIn(cs, models.ArcadeDept) || HasShiftsIn(cs, models.ConsoleDept) {
		t.Error("unexpected department membership")
	}
}

func TestPossible(t *testing.T) {
	p := models.DefaultPolicy()
	a := &models.Attendee{Staffing: true, AssignedDepts: models.NewDepartments(models.ArcadeDept)}

	later := job("later", models.ArcadeDept, 5, 1)
	earlier := job("earlier", models.ArcadeDept, 3, 1)
	full := job("full", models.ArcadeDept, 8, 1)
	elsewhere := job("elsewhere", models.ConsoleDept, 6, 1)
	restricted := job("restricted", models.ArcadeDept, 9, 1)
	restricted.Restricted = true
	setup := job("setup", models.ArcadeDept, -48, 2)
	setup.Type = models.SetupJob
	clash := job("clash", models.ArcadeDept, 0, 1)

	jobs := []*models.Job{later, earlier, full, elsewhere, restricted, setup, clash}
	taken := map[string]int{"full": 2}
	cs := committed(job("mine", models.ArcadeDept, 0, 2))

	got := Possible(a, p, jobs, taken, cs, nil)
	if len(got) != 2 || got[0] != earlier || got[1] != later {
		t.Fatalf("expected earlier then later, got %v", got)
	}

	t.Run("NoDepartments", func(t *testing.T) {
		if got := Possible(&models.Attendee{Staffing: true}, p, jobs, taken, nil, nil); got != nil {
			t.Errorf("expected nothing without assigned departments, got %v", got)
		}
	})

	t.Run("AtTheCon", func(t *testing.T) {
		con := models.DefaultPolicy()
		con.AtTheCon = true
		trusted := &models.Attendee{Staffing: true, Trusted: true}
		hotel := &models.HotelRequest{Nights: models.Nights{Set: models.NewNightSet(models.Wednesday)}, Approved: true}
		got := Possible(trusted, con, jobs, taken, cs, hotel)
		if len(got) != 5 || got[0] != setup {
			t.Errorf("expected setup first among 5 jobs, got %v", got)
		}
	})
}
