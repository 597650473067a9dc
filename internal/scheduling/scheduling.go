// Package scheduling decides which jobs a volunteer can still take.
package scheduling

import (
	"slices"
	"time"

	"github.com/gdg-garage/con-registration-api/internal/models"
)

// Commitment is one of an attendee's shifts with its job loaded.
type Commitment struct {
	Shift *models.Shift
	Job   *models.Job
}

func hourKey(t time.Time) int64 {
	return t.Unix()
}

// HourMap maps every hour the attendee works to the job covering it.
func HourMap(cs []Commitment) map[int64]*models.Job {
	hours := make(map[int64]*models.Job)
	for _, c := range cs {
		for _, h := range c.Job.Hours() {
			hours[hourKey(h)] = c.Job
		}
	}
	return hours
}

// NoOverlap reports whether job fits around the attendee's commitments.
// Abutting jobs are fine unless the earlier one runs fifteen minutes over
// into a different location.
func NoOverlap(job *models.Job, cs []Commitment) bool {
	worked := HourMap(cs)
	for _, h := range job.Hours() {
		if _, ok := worked[hourKey(h)]; ok {
			return false
		}
	}
	if prev, ok := worked[hourKey(job.StartTime.Add(-time.Hour))]; ok {
		if prev.Extra15 && prev.Location != job.Location {
			return false
		}
	}
	if next, ok := worked[hourKey(job.EndTime())]; ok {
		if job.Extra15 && next.Location != job.Location {
			return false
		}
	}
	return true
}

func WeightedHours(a *models.Attendee, cs []Commitment) float64 {
	total := 0.0
	for _, c := range cs {
		total += c.Job.WeightedHours()
	}
	return total + float64(a.NonshiftHours)
}

func WorkedHours(a *models.Attendee, cs []Commitment) float64 {
	total := 0.0
	for _, c := range cs {
		if c.Shift.Worked == models.ShiftWorked {
			total += c.Job.RealDuration() * c.Job.Weight
		}
	}
	return total + float64(a.NonshiftHours)
}

func HasShiftsIn(cs []Commitment, dept models.Department) bool {
	return slices.ContainsFunc(cs, func(c Commitment) bool {
		return c.Job.Location == dept
	})
}

// Possible lists, by start time, the jobs a can sign up for. taken counts the
// shifts already filed against each job id; hotel may be nil.
func Possible(a *models.Attendee, p *models.Policy, jobs []*models.Job, taken map[string]int, cs []Commitment, hotel *models.HotelRequest) []*models.Job {
	if a.AssignedDepts == "" && !p.AtTheCon {
		return nil
	}
	var possible []*models.Job
	for _, job := range jobs {
		switch {
		case !p.AtTheCon && !a.AssignedDepts.Has(job.Location.Int()):
		case job.Slots <= taken[job.ID]:
		case !NoOverlap(job, cs):
		case job.Type == models.SetupJob && !hotel.ApprovedForSetup(p):
		case job.Type == models.TeardownJob && !hotel.ApprovedForTeardown(p):
		case job.Restricted && !a.Trusted:
		default:
			possible = append(possible, job)
		}
	}
	slices.SortStableFunc(possible, func(x, y *models.Job) int {
		return x.StartTime.Compare(y.StartTime)
	})
	return possible
}
