// Package notify records inbox events for users. Dispatch is best effort:
// a failed insert is logged and never propagated to the action that
// triggered it, and self-notifications are suppressed.
package notify

import (
	"context"
	"log"

	"github.com/idealink-app/idealink/src/api/types"
	"gorm.io/gorm"
)

type Dispatcher struct {
	db *gorm.DB
}

func NewDispatcher(db *gorm.DB) *Dispatcher {
	return &Dispatcher{db: db}
}

// Dispatch inserts a notification row for userID. No-op when the actor is
// the recipient.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, typ, title, message, link, actorID, ideaID string) {
	if actorID != "" && actorID == userID {
		return
	}
	n := types.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Link:    link,
		ActorID: actorID,
		IdeaID:  ideaID,
	}
	if err := d.db.WithContext(ctx).Create(&n).Error; err != nil {
		log.Printf("notify: %s for %s: %v", typ, userID, err)
	}
}
