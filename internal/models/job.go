package models

import (
	"context"
	"fmt"
	"time"
)

// Job is a block of whole hours staffed by up to Slots volunteers.
type Job struct {
	Base
	Type        JobType    `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Location    Department `json:"location"`
	StartTime   time.Time  `json:"start_time"`
	Duration    int        `json:"duration"`
	Weight      float64    `json:"weight"`
	Slots       int        `json:"slots"`
	Restricted  bool       `json:"restricted"`
	Extra15     bool       `gorm:"column:extra15" json:"extra15"`
}

func (Job) TableName() string { return "jobs" }

func (j *Job) String() string {
	return fmt.Sprintf("<Job %s>", j.Name)
}

// Hours lists the start of every hour the job covers.
func (j *Job) Hours() []time.Time {
	hours := make([]time.Time, 0, j.Duration)
	for i := range j.Duration {
		hours = append(hours, j.StartTime.Add(time.Duration(i)*time.Hour))
	}
	return hours
}

func (j *Job) EndTime() time.Time {
	return j.StartTime.Add(time.Duration(j.Duration) * time.Hour)
}

// RealDuration includes the trailing quarter hour of extra15 jobs.
func (j *Job) RealDuration() float64 {
	if j.Extra15 {
		return float64(j.Duration) + 0.25
	}
	return float64(j.Duration)
}

func (j *Job) WeightedHours() float64 {
	return j.Weight * j.RealDuration()
}

func (j *Job) TotalHours() float64 {
	return j.WeightedHours() * float64(j.Slots)
}

func (j *Job) SlotsUntaken(taken int) int {
	return max(0, j.Slots-taken)
}

func (j *Job) IsSetup(p *Policy) bool {
	return !p.Epoch.IsZero() && j.StartTime.Before(p.Epoch)
}

func (j *Job) IsTeardown(p *Policy) bool {
	return !p.Eschaton.IsZero() && !j.StartTime.Before(p.Eschaton)
}

func (j *Job) PresaveAdjustments(ctx context.Context, tx Tx) error {
	if j.Weight == 0 {
		j.Weight = 1
	}
	j.StartTime = j.StartTime.UTC()
	return nil
}

func (j *Job) OnDelete(ctx context.Context, tx Tx) error {
	shifts, err := tx.JobShifts(ctx, j.ID)
	if err != nil {
		return err
	}
	for _, s := range shifts {
		tx.Delete(s)
	}
	return nil
}

// Shift is one attendee signed up for one job.
type Shift struct {
	Base
	JobID      string       `gorm:"type:uuid;index" link:"jobs" json:"job_id"`
	AttendeeID string       `gorm:"type:uuid;index" link:"attendees" json:"attendee_id"`
	Worked     WorkedStatus `json:"worked"`
	Rating     Rating       `json:"rating"`
	Comment    string       `json:"comment"`
}

func (Shift) TableName() string { return "shifts" }

func (s *Shift) String() string {
	return fmt.Sprintf("<Shift %s on %s>", s.AttendeeID, s.JobID)
}
