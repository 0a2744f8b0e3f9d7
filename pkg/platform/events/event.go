// Package events carries domain events out of the services: an async emitter
// buffers them and a publisher delivers them to Kafka or the log.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"foodgram/pkg/attrs"
	"foodgram/pkg/requestcontext"
)

// Type names a domain event.
type Type string

const (
	UserRegistered         Type = "user.registered"
	PasswordChanged        Type = "user.password_changed"
	UserLoggedIn           Type = "auth.logged_in"
	UserLoggedOut          Type = "auth.logged_out"
	SubscriptionCreated    Type = "subscription.created"
	SubscriptionDeleted    Type = "subscription.deleted"
	TagCreated             Type = "tag.created"
	TagUpdated             Type = "tag.updated"
	TagDeleted             Type = "tag.deleted"
	IngredientCreated      Type = "ingredient.created"
	IngredientDeleted      Type = "ingredient.deleted"
	RecipeCreated          Type = "recipe.created"
	RecipeUpdated          Type = "recipe.updated"
	RecipeDeleted          Type = "recipe.deleted"
	FavoriteAdded          Type = "favorite.added"
	FavoriteRemoved        Type = "favorite.removed"
	CartItemAdded          Type = "shopping_cart.added"
	CartItemRemoved        Type = "shopping_cart.removed"
	ShoppingListDownloaded Type = "shopping_cart.downloaded"
)

// Event is the envelope published for every state change.
type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	ActorID    int64             `json:"actor_id,omitempty"`
	SubjectID  string            `json:"subject_id,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// New builds an event from the request context and slog-style key/value pairs.
// A "subject_id" pair becomes the event subject; the rest become attributes.
func New(ctx context.Context, typ Type, kv ...any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		ActorID:    int64(requestcontext.UserID(ctx)),
		SubjectID:  attrs.String(kv, "subject_id"),
		RequestID:  requestcontext.RequestID(ctx),
		OccurredAt: requestcontext.Now(ctx).UTC(),
		Attributes: attrs.Map(kv, "subject_id", "request_id"),
	}
}

// Key partitions events so that all events about one subject stay ordered.
func (e Event) Key() string {
	if e.SubjectID != "" {
		return string(e.Type) + ":" + e.SubjectID
	}
	return string(e.Type)
}
