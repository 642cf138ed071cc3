package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teamboard/teamboard/internal/config"
	"github.com/teamboard/teamboard/internal/events"
)

const defaultFeedLimit = 50

// Notification is a toast-style message for one user.
type Notification struct {
	ID        string           `json:"id"`
	Type      events.EventType `json:"type"`
	TeamID    string           `json:"teamId"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NotificationService turns team events into per-user notification feeds.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig

	mu    sync.Mutex
	feeds map[string][]Notification
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FeedLimit <= 0 {
		cfg.FeedLimit = defaultFeedLimit
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		feeds:      make(map[string][]Notification),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventTeamCreated,
		events.EventTeamUpdated,
		events.EventTeamDeleted,
		events.EventMemberAdded,
		events.EventMemberRemoved,
		events.EventMemberRoleChanged,
		events.EventPostCreated,
	} {
		n.dispatcher.Subscribe(t, n.handleTeamEvent)
	}
}

// List returns userID's notifications, newest first.
func (n *NotificationService) List(userID string) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	feed := n.feeds[userID]
	out := make([]Notification, len(feed))
	for i := range feed {
		out[i] = feed[len(feed)-1-i]
	}
	return out
}

func (n *NotificationService) handleTeamEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("team_id", event.TeamID),
		zap.String("actor_id", event.ActorID),
		zap.Int("recipients", len(event.Recipients)))

	for _, userID := range event.Recipients {
		n.push(userID, Notification{
			ID:        uuid.NewString(),
			Type:      event.Type,
			TeamID:    event.TeamID,
			Message:   notificationMessage(event, userID),
			CreatedAt: event.Timestamp,
		})
	}
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) push(userID string, note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	feed := append(n.feeds[userID], note)
	if over := len(feed) - n.cfg.FeedLimit; over > 0 {
		feed = append([]Notification(nil), feed[over:]...)
	}
	n.feeds[userID] = feed
}

func notificationMessage(event events.Event, recipient string) string {
	team := event.TeamName
	member, _ := event.Payload.(events.MemberPayload)
	switch event.Type {
	case events.EventTeamCreated:
		return fmt.Sprintf("You were added to the new team %s", team)
	case events.EventTeamUpdated:
		return fmt.Sprintf("Team %s was updated", team)
	case events.EventTeamDeleted:
		return fmt.Sprintf("Team %s was deleted", team)
	case events.EventMemberAdded:
		if member.UserID == recipient {
			return fmt.Sprintf("You were added to %s as %s", team, member.Role)
		}
		return fmt.Sprintf("A new member joined %s", team)
	case events.EventMemberRemoved:
		if member.UserID == recipient {
			return fmt.Sprintf("You were removed from %s", team)
		}
		return fmt.Sprintf("A member left %s", team)
	case events.EventMemberRoleChanged:
		if member.UserID == recipient {
			return fmt.Sprintf("Your role in %s is now %s", team, member.Role)
		}
		return fmt.Sprintf("A member's role changed in %s", team)
	case events.EventPostCreated:
		return fmt.Sprintf("New post in %s", team)
	default:
		return fmt.Sprintf("Activity in %s", team)
	}
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("team_id", event.TeamID),
		zap.String("event_type", string(event.Type)))
}
