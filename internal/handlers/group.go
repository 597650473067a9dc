package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/con-registration-api/internal/auth"
	"github.com/gdg-garage/con-registration-api/internal/models"
	"github.com/gdg-garage/con-registration-api/internal/session"
)

type GroupHandler struct {
	sessionHandler
}

func NewGroupHandler(store *session.Store, authHandler *auth.AuthHandler) *GroupHandler {
	return &GroupHandler{sessionHandler{store: store, authHandler: authHandler}}
}

type GroupResponse struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Tables       float64            `json:"tables"`
	Cost         int                `json:"cost"`
	AmountUnpaid int                `json:"amount_unpaid"`
	Badges       int                `json:"badges"`
	Floating     int                `json:"floating"`
	Members      []AttendeeResponse `json:"members"`
}

type GroupOutput struct {
	Body GroupResponse
}

func (h *GroupHandler) groupOutput(ctx context.Context, s *session.Session, g *models.Group) (*GroupOutput, error) {
	members, err := s.GroupMembers(ctx, g.ID)
	if err != nil {
		return nil, storeError(err)
	}
	p := s.Policy()
	out := &GroupOutput{Body: GroupResponse{
		ID:           g.ID,
		Name:         g.Name,
		Tables:       g.Tables,
		Cost:         g.Cost,
		AmountUnpaid: g.AmountUnpaid(p, members),
		Badges:       g.Badges(members),
		Floating:     len(g.Floating(members)),
		Members:      make([]AttendeeResponse, 0, len(members)),
	}}
	for _, a := range members {
		out.Body.Members = append(out.Body.Members, attendeeResponse(a, p))
	}
	return out, nil
}

type CreateGroupRequest struct {
	auth.AuthInput
	Body struct {
		Name      string  `json:"name" required:"true" doc:"Group name"`
		Tables    float64 `json:"tables,omitempty" doc:"Dealer tables; 0 for a plain group"`
		Badges    int     `json:"badges" minimum:"1" doc:"Number of badges the group buys"`
		BadgeType int     `json:"badge_type,omitempty" doc:"Badge type option value for the new badges"`
	}
}

func (h *GroupHandler) HandleCreate(ctx context.Context, input *CreateGroupRequest) (*GroupOutput, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	defer s.Close(ctx)

	t := models.BadgeType(input.Body.BadgeType)
	if err := choice("badge_type", t); err != nil {
		return nil, err
	}
	g := models.NewGroup(input.Body.Name)
	g.Tables = input.Body.Tables
	msg, err := s.AssignBadges(ctx, g, input.Body.Badges, t)
	if err != nil {
		return nil, storeError(err)
	}
	if msg != "" {
		return nil, huma.Error409Conflict(msg)
	}
	if err := s.Commit(ctx); err != nil {
		return nil, storeError(err)
	}
	return h.groupOutput(ctx, s, g)
}

type GroupIDInput struct {
	auth.AuthInput
	ID string `path:"id" format:"uuid" doc:"Group id"`
}

func (h *GroupHandler) HandleGet(ctx context.Context, input *GroupIDInput) (*GroupOutput, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	g, err := s.Group(ctx, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	return h.groupOutput(ctx, s, g)
}

type AssignBadgesRequest struct {
	auth.AuthInput
	ID   string `path:"id" format:"uuid"`
	Body struct {
		Count     int `json:"count" minimum:"0" doc:"Total number of badges the group should have"`
		BadgeType int `json:"badge_type,omitempty" doc:"Badge type option value for added badges"`
	}
}

func (h *GroupHandler) HandleAssignBadges(ctx context.Context, input *AssignBadgesRequest) (*GroupOutput, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	defer s.Close(ctx)

	t := models.BadgeType(input.Body.BadgeType)
	if err := choice("badge_type", t); err != nil {
		return nil, err
	}
	g, err := s.Group(ctx, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	msg, err := s.AssignBadges(ctx, g, input.Body.Count, t)
	if err != nil {
		return nil, storeError(err)
	}
	if msg != "" {
		return nil, huma.Error409Conflict(msg)
	}
	if err := s.Commit(ctx); err != nil {
		return nil, storeError(err)
	}
	return h.groupOutput(ctx, s, g)
}

type MatchRequest struct {
	auth.AuthInput
	ID   string `path:"id" format:"uuid"`
	Body struct {
		AttendeeID string `json:"attendee_id" format:"uuid" doc:"Walk-up attendee claiming a group badge"`
	}
}

func (h *GroupHandler) HandleMatch(ctx context.Context, input *MatchRequest) (*MessageResponse, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	defer s.Close(ctx)

	g, err := s.Group(ctx, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	a, err := s.Attendee(ctx, input.Body.AttendeeID)
	if err != nil {
		return nil, storeError(err)
	}
	msg, err := s.MatchToGroup(ctx, a, g)
	if err != nil {
		return nil, storeError(err)
	}
	return outcome(msg, a.FullName()+" has been matched to "+g.Name)
}

type RemoveMemberInput struct {
	auth.AuthInput
	ID         string `path:"id" format:"uuid"`
	AttendeeID string `path:"attendee_id" format:"uuid"`
}

func (h *GroupHandler) HandleRemoveMember(ctx context.Context, input *RemoveMemberInput) (*GroupOutput, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	defer s.Close(ctx)

	g, err := s.Group(ctx, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	a, err := s.Attendee(ctx, input.AttendeeID)
	if err != nil {
		return nil, storeError(err)
	}
	if a.GroupID == nil || *a.GroupID != g.ID {
		return nil, huma.Error404NotFound(a.FullName() + " is not a member of " + g.Name)
	}
	if err := s.DeleteFromGroup(ctx, a, g); err != nil {
		return nil, storeError(err)
	}
	if err := s.Commit(ctx); err != nil {
		return nil, storeError(err)
	}
	return h.groupOutput(ctx, s, g)
}
