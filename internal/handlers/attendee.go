package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/con-registration-api/internal/auth"
	"github.com/gdg-garage/con-registration-api/internal/models"
	"github.com/gdg-garage/con-registration-api/internal/session"
)

type AttendeeHandler struct {
	sessionHandler
}

func NewAttendeeHandler(store *session.Store, authHandler *auth.AuthHandler) *AttendeeHandler {
	return &AttendeeHandler{sessionHandler{store: store, authHandler: authHandler}}
}

type AttendeeResponse struct {
	ID            string     `json:"id"`
	GroupID       *string    `json:"group_id,omitempty"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email"`
	Badge         string     `json:"badge" doc:"Printed badge description"`
	BadgeType     int        `json:"badge_type"`
	BadgeNum      int        `json:"badge_num"`
	Ribbon        string     `json:"ribbon"`
	Paid          string     `json:"paid"`
	AmountUnpaid  int        `json:"amount_unpaid"`
	Staffing      bool       `json:"staffing"`
	AssignedDepts []string   `json:"assigned_depts"`
	RegStation    *int       `json:"reg_station,omitempty"`
	Registered    time.Time  `json:"registered"`
	CheckedIn     *time.Time `json:"checked_in,omitempty"`
}

func attendeeResponse(a *models.Attendee, p *models.Policy) AttendeeResponse {
	return AttendeeResponse{
		ID:            a.ID,
		GroupID:       a.GroupID,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Email:         a.Email,
		Badge:         a.Badge(),
		BadgeType:     a.BadgeType.Int(),
		BadgeNum:      a.BadgeNum,
		Ribbon:        a.Ribbon.String(),
		Paid:          a.Paid.String(),
		AmountUnpaid:  a.AmountUnpaid(p),
		Staffing:      a.Staffing,
		AssignedDepts: a.AssignedDepts.Labels(),
		RegStation:    a.RegStation,
		Registered:    a.Registered,
		CheckedIn:     a.CheckedIn,
	}
}

type AttendeeOutput struct {
	Body AttendeeResponse
}

type RegisterRequest struct {
	auth.AuthInput
	Body struct {
		FirstName      string `json:"first_name" doc:"First name" required:"true"`
		LastName       string `json:"last_name" doc:"Last name" required:"true"`
		Email          string `json:"email,omitempty" doc:"Contact email; a confirmation is recorded when set"`
		BadgeType      int    `json:"badge_type,omitempty" doc:"Badge type option value"`
		Ribbon         int    `json:"ribbon,omitempty" doc:"Ribbon option value"`
		Paid           int    `json:"paid,omitempty" doc:"Payment status option value"`
		AmountPaid     int    `json:"amount_paid,omitempty"`
		AmountExtra    int    `json:"amount_extra,omitempty" doc:"Kick-in amount in dollars"`
		Affiliate      string `json:"affiliate,omitempty"`
		Staffing       bool   `json:"staffing,omitempty" doc:"Whether the attendee volunteers"`
		RequestedDepts []int  `json:"requested_depts,omitempty" doc:"Department option values"`
		GroupID        string `json:"group_id,omitempty" doc:"Group the attendee belongs to"`
		Comments       string `json:"comments,omitempty"`
	}
}

// choice validates a raw option value from a request body.
func choice[C interface{ Valid() error }](field string, c C) error {
	if err := c.Valid(); err != nil {
		return huma.Error422UnprocessableEntity(fmt.Sprintf("%s: %v", field, err))
	}
	return nil
}

func departments(field string, values []int) (models.Departments, error) {
	ds := make([]models.Department, 0, len(values))
	for _, v := range values {
		d := models.Department(v)
		if err := choice(field, d); err != nil {
			return "", err
		}
		ds = append(ds, d)
	}
	return models.NewDepartments(ds...), nil
}

func (h *AttendeeHandler) HandleRegister(ctx context.Context, input *RegisterRequest) (*AttendeeOutput, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	defer s.Close(ctx)

	in := input.Body
	a := &models.Attendee{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		BadgeType:   models.BadgeType(in.BadgeType),
		Ribbon:      models.Ribbon(in.Ribbon),
		Paid:        models.PaymentStatus(in.Paid),
		AmountPaid:  in.AmountPaid,
		AmountExtra: models.DonationTier(in.AmountExtra),
		Affiliate:   in.Affiliate,
		Staffing:    in.Staffing,
		Comments:    in.Comments,
	}
	for _, err := range []error{
		choice("badge_type", a.BadgeType),
		choice("ribbon", a.Ribbon),
		choice("paid", a.Paid),
		choice("amount_extra", a.AmountExtra),
	} {
		if err != nil {
			return nil, err
		}
	}
	if a.RequestedDepts, err = departments("requested_depts", in.RequestedDepts); err != nil {
		return nil, err
	}
	if station, ok := auth.Station(ctx); ok {
		a.RegStation = &station
	}

	if in.GroupID != "" {
		g, err := s.Group(ctx, in.GroupID)
		if err != nil {
			return nil, storeError(err)
		}
		groupID := g.ID
		a.GroupID = &groupID
		s.Touch(g)
	}

	if err := s.Add(ctx, a); err != nil {
		return nil, storeError(err)
	}
	if a.Email != "" {
		fkID := a.EnsureID()
		confirmation := &models.Email{
			FKID:    &fkID,
			Model:   "Attendee",
			When:    s.Policy().Now(),
			Subject: "Registration confirmation",
			Dest:    a.Email,
			Body:    fmt.Sprintf("Thanks for registering, %s!", a.FullName()),
		}
		if err := s.Add(ctx, confirmation); err != nil {
			return nil, storeError(err)
		}
	}
	if err := s.Commit(ctx); err != nil {
		return nil, storeError(err)
	}
	return &AttendeeOutput{Body: attendeeResponse(a, s.Policy())}, nil
}

type AttendeeIDInput struct {
	auth.AuthInput
	ID string `path:"id" format:"uuid" doc:"Attendee id"`
}

func (h *AttendeeHandler) HandleGet(ctx context.Context, input *AttendeeIDInput) (*AttendeeOutput, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	a, err := s.Attendee(ctx, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	return &AttendeeOutput{Body: attendeeResponse(a, s.Policy())}, nil
}

type SearchInput struct {
	auth.AuthInput
	Query string `query:"q" doc:"Search text, e.g. a name, badge number, email:<term> or group:<term>"`
}

type SearchOutput struct {
	Body []AttendeeResponse
}

func (h *AttendeeHandler) HandleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	found, err := s.Search(ctx, input.Query)
	if err != nil {
		return nil, storeError(err)
	}
	out := &SearchOutput{Body: make([]AttendeeResponse, 0, len(found))}
	for _, a := range found {
		out.Body = append(out.Body, attendeeResponse(a, s.Policy()))
	}
	return out, nil
}

type ChangeBadgeRequest struct {
	auth.AuthInput
	ID   string `path:"id" format:"uuid"`
	Body struct {
		BadgeType int `json:"badge_type" doc:"New badge type option value"`
		BadgeNum  int `json:"badge_num,omitempty" doc:"Requested number; 0 takes the next available"`
	}
}

func (h *AttendeeHandler) HandleChangeBadge(ctx context.Context, input *ChangeBadgeRequest) (*MessageResponse, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	defer s.Close(ctx)

	t := models.BadgeType(input.Body.BadgeType)
	if err := choice("badge_type", t); err != nil {
		return nil, err
	}
	a, err := s.Attendee(ctx, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	change, err := s.ChangeBadge(ctx, a, t, input.Body.BadgeNum)
	if err != nil {
		return nil, storeError(err)
	}
	if !change.OK() {
		return nil, huma.Error409Conflict(change.Failure)
	}
	res := message(change.Message())
	res.Body.Warning = change.Warning
	return res, nil
}

func (h *AttendeeHandler) HandleDelete(ctx context.Context, input *AttendeeIDInput) (*struct{}, error) {
	s, err := h.beginAdmin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	defer s.Close(ctx)

	a, err := s.Attendee(ctx, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	s.Delete(a)
	if err := s.Commit(ctx); err != nil {
		return nil, storeError(err)
	}
	return nil, nil
}

type PossibleJobsOutput struct {
	Body struct {
		WeightedHours float64       `json:"weighted_hours"`
		WorkedHours   float64       `json:"worked_hours"`
		Jobs          []*models.Job `json:"jobs"`
	}
}

func (h *AttendeeHandler) HandlePossibleJobs(ctx context.Context, input *AttendeeIDInput) (*PossibleJobsOutput, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	a, err := s.Attendee(ctx, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	jobs, err := s.Possible(ctx, a.ID)
	if err != nil {
		return nil, storeError(err)
	}
	weighted, worked, err := s.Hours(ctx, a)
	if err != nil {
		return nil, storeError(err)
	}
	out := &PossibleJobsOutput{}
	out.Body.WeightedHours = weighted
	out.Body.WorkedHours = worked
	out.Body.Jobs = jobs
	return out, nil
}
