package handlers

import (
	"context"
	"time"

	"github.com/gdg-garage/con-registration-api/internal/auth"
	"github.com/gdg-garage/con-registration-api/internal/session"
)

type HistoryHandler struct {
	sessionHandler
}

func NewHistoryHandler(store *session.Store, authHandler *auth.AuthHandler) *HistoryHandler {
	return &HistoryHandler{sessionHandler{store: store, authHandler: authHandler}}
}

type HistoryInput struct {
	auth.AuthInput
	ID string `path:"id" format:"uuid" doc:"Id of any tracked row"`
}

type HistoryEntry struct {
	When   time.Time `json:"when"`
	Who    string    `json:"who"`
	Model  string    `json:"model"`
	Which  string    `json:"which"`
	Action string    `json:"action"`
	Data   string    `json:"data"`
	Links  string    `json:"links,omitempty"`
}

type HistoryOutput struct {
	Body []HistoryEntry
}

func (h *HistoryHandler) HandleHistory(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	rows, err := s.History(ctx, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	out := &HistoryOutput{Body: make([]HistoryEntry, 0, len(rows))}
	for _, t := range rows {
		out.Body = append(out.Body, HistoryEntry{
			When:   t.When,
			Who:    t.Who,
			Model:  t.Model,
			Which:  t.Which,
			Action: t.Action.String(),
			Data:   t.Data,
			Links:  t.Links,
		})
	}
	return out, nil
}

type EmailEntry struct {
	When    time.Time `json:"when"`
	Subject string    `json:"subject"`
	Dest    string    `json:"dest"`
}

type EmailsOutput struct {
	Body []EmailEntry
}

func (h *HistoryHandler) HandleEmails(ctx context.Context, input *HistoryInput) (*EmailsOutput, error) {
	s, err := h.begin(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	rows, err := s.Emails(ctx, input.ID)
	if err != nil {
		return nil, storeError(err)
	}
	out := &EmailsOutput{Body: make([]EmailEntry, 0, len(rows))}
	for _, e := range rows {
		out.Body = append(out.Body, EmailEntry{When: e.When, Subject: e.Subject, Dest: e.Dest})
	}
	return out, nil
}
