package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/con-registration-api/internal/models"
	"github.com/gdg-garage/con-registration-api/internal/session"
)

type Notifier interface {
	NotifyRegistration(a *models.Attendee) error
	NotifyBadgeExhausted(t models.BadgeType) error
}

// MessageSender is the part of a Discord session the notifier uses.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   MessageSender
	channelID string
}

func NewDiscordNotifier(session MessageSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

// NewDiscordSession opens a bot session, or returns nil when no token is set.
func NewDiscordSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, nil
	}
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return dg, nil
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}
	if _, err := n.session.ChannelMessageSend(n.channelID, message); err != nil {
		slog.Error("Failed to send discord message", "channel", n.channelID, "error", err)
		return err
	}
	return nil
}

func (n *DiscordNotifier) NotifyRegistration(a *models.Attendee) error {
	badge := a.Badge()
	if a.Staffing {
		badge += ", volunteering"
	}
	message := fmt.Sprintf("🎉 **New Registration**\n**Name:** %s\n**Badge:** %s\n**Paid:** %s",
		a.FullName(),
		badge,
		a.Paid,
	)
	if a.GroupID != nil {
		message += fmt.Sprintf("\n**Group:** %s", *a.GroupID)
	}
	return n.send(message)
}

func (n *DiscordNotifier) NotifyBadgeExhausted(t models.BadgeType) error {
	return n.send(fmt.Sprintf("⚠️ **Badge range exhausted**\nThere are no more %s badge numbers available.", t))
}

// Hook reports new attendees and exhausted badge ranges after each commit.
// Delivery failures are logged and never fail the commit.
func Hook(n Notifier) session.Hook {
	return func(ctx context.Context, s *session.Session) error {
		for _, m := range s.Created() {
			a, ok := m.(*models.Attendee)
			if !ok || a.IsUnassigned() {
				continue
			}
			if err := n.NotifyRegistration(a); err != nil {
				slog.Warn("Registration notification failed", "attendee", a.ID, "error", err)
			}
		}
		return ExhaustedHook(n)(ctx, s)
	}
}

// ExhaustedHook reports the badge ranges a session ran out of. Registered on
// close it also covers sessions that never committed, such as a failed badge
// change.
func ExhaustedHook(n Notifier) session.Hook {
	return func(ctx context.Context, s *session.Session) error {
		for _, t := range s.TakeExhausted() {
			if err := n.NotifyBadgeExhausted(t); err != nil {
				slog.Warn("Badge exhaustion notification failed", "badge_type", t, "error", err)
			}
		}
		return nil
	}
}
