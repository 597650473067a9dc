package session

import (
	"context"

	"github.com/gdg-garage/con-registration-api/internal/models"
	"github.com/gdg-garage/con-registration-api/internal/scheduling"
)

const (
	msgRestrictedJob = "You cannot assign an untrusted attendee to a restricted shift"
	msgJobFull       = "All slots for this job have already been filled"
	msgShiftOverlap  = "This volunteer is already signed up for a shift during that time"
)

// Commitments pairs each of the attendee's shifts with its job.
func (s *Session) Commitments(ctx context.Context, attendeeID string) ([]scheduling.Commitment, error) {
	shifts, err := s.AttendeeShifts(ctx, attendeeID)
	if err != nil {
		return nil, err
	}
	cs := make([]scheduling.Commitment, 0, len(shifts))
	for _, sh := range shifts {
		job, err := s.Job(ctx, sh.JobID)
		if err != nil {
			return nil, err
		}
		cs = append(cs, scheduling.Commitment{Shift: sh, Job: job})
	}
	return cs, nil
}

// Assign signs the attendee up for the job and commits. Business rule
// violations come back as a message and leave the session untouched.
func (s *Session) Assign(ctx context.Context, attendeeID, jobID string) (string, error) {
	var msg string
	err := s.underLock(ctx, func() (bool, error) {
		job, err := s.Job(ctx, jobID)
		if err != nil {
			return false, err
		}
		a, err := s.Attendee(ctx, attendeeID)
		if err != nil {
			return false, err
		}
		if job.Restricted && !a.Trusted {
			msg = msgRestrictedJob
			return false, nil
		}
		taken, err := s.JobShifts(ctx, jobID)
		if err != nil {
			return false, err
		}
		if job.Slots <= len(taken) {
			msg = msgJobFull
			return false, nil
		}
		cs, err := s.Commitments(ctx, attendeeID)
		if err != nil {
			return false, err
		}
		if !scheduling.NoOverlap(job, cs) {
			msg = msgShiftOverlap
			return false, nil
		}
		return true, s.Add(ctx, &models.Shift{JobID: job.ID, AttendeeID: a.ID})
	})
	return msg, err
}

// Possible lists the jobs the attendee could still sign up for.
func (s *Session) Possible(ctx context.Context, attendeeID string) ([]*models.Job, error) {
	a, err := s.Attendee(ctx, attendeeID)
	if err != nil {
		return nil, err
	}
	jobs, err := Find[models.Job](ctx, s, Order("start_time"))
	if err != nil {
		return nil, err
	}
	shifts, err := collect(ctx, s, func(*models.Shift) bool { return true })
	if err != nil {
		return nil, err
	}
	taken := make(map[string]int, len(jobs))
	for _, sh := range shifts {
		taken[sh.JobID]++
	}
	cs, err := s.Commitments(ctx, attendeeID)
	if err != nil {
		return nil, err
	}
	hotel, err := s.HotelRequest(ctx, attendeeID)
	if err != nil {
		return nil, err
	}
	return scheduling.Possible(a, s.Policy(), jobs, taken, cs, hotel), nil
}

// Hours returns the weighted hours an attendee signed up for and the hours
// marked as worked.
func (s *Session) Hours(ctx context.Context, a *models.Attendee) (weighted, worked float64, err error) {
	cs, err := s.Commitments(ctx, a.ID)
	if err != nil {
		return 0, 0, err
	}
	return scheduling.WeightedHours(a, cs), scheduling.WorkedHours(a, cs), nil
}
