package handlers

import (
	"context"
	"time"

	"github.com/gdg-garage/con-registration-api/internal/auth"
	"github.com/gdg-garage/con-registration-api/internal/models"
	"github.com/gdg-garage/con-registration-api/internal/session"
)

type JobHandler struct {
	sessionHandler
}

func NewJobHandler(store *session.Store, authHandler *auth.AuthHandler) *JobHandler {
	return &JobHandler{sessionHandler{store: store, authHandler: authHandler}}
}

type CreateJobRequest struct {
	auth.AuthInput
	Body struct {
		Name        string    `json:"name" required:"true"`
		Description string    `json:"description,omitempty"`
		Type        int       `json:"type,omitempty" doc:"Job type option value"`
		Location    int       `json:"location" doc:"Department option value"`
		StartTime   time.Time `json:"start_time" doc:"Start of the first hour"`
		Duration    int       `json:"duration" minimum:"1" doc:"Length in whole hours"`
		Weight      float64   `json:"weight,omitempty" doc:"Hour multiplier; defaults to 1"`
		Slots       int       `json:"slots" minimum:"1"`
		Restricted  bool      `json:"restricted,omitempty" doc:"Only trusted volunteers may sign up"`
		Extra15     bool      `json:"extra15,omitempty" doc:"Runs fifteen minutes past its last hour"`
	}
}

type JobOutput struct {
	Body *models.Job
}

func (h *JobHandler) HandleCreate(ctx context.Context, input *CreateJobRequest) (*JobOutput, error) {
	s, err := h.beginAdmin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	defer s.Close(ctx)

	in := input.Body
	j := &models.Job{
		Type:        models.JobType(in.Type),
		Name:        in.Name,
		Description: in.Description,
		Location:    models.Department(in.Location),
		StartTime:   in.StartTime,
		Duration:    in.Duration,
		Weight:      in.Weight,
		Slots:       in.Slots,
		Restricted:  in.Restricted,
		Extra15:     in.Extra15,
	}
	if err := choice("type", j.Type); err != nil {
		return nil, err
	}
	if err := choice("location", j.Location); err != nil {
		return nil, err
	}
	if err := s.Add(ctx, j); err != nil {
		return nil, storeError(err)
	}
	if err := s.Commit(ctx); err != nil {
		return nil, storeError(err)
	}
	return &JobOutput{Body: j}, nil
}

type AssignRequest struct {
	auth.AuthInput
	ID   string `path:"id" format:"uuid" doc:"Job id"`
	Body struct {
		AttendeeID string `json:"attendee_id" format:"uuid"`
	}
}

func (h *JobHandler) HandleAssign(ctx context.Context, input *AssignRequest) (*MessageResponse, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	defer s.Close(ctx)

	msg, err := s.Assign(ctx, input.Body.AttendeeID, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	return outcome(msg, "Shift assigned")
}
