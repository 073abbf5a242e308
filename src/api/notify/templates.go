package notify

import (
	"context"
	"fmt"

	"github.com/idealink-app/idealink/src/api/types"
)

func (d *Dispatcher) IdeaViewed(ctx context.Context, ownerID, ideaID, ideaTitle, viewerID string) {
	d.Dispatch(ctx, ownerID, types.NotifIdeaView,
		"Someone viewed your idea",
		fmt.Sprintf("Your idea %q was viewed", ideaTitle),
		"/ideas/"+ideaID, viewerID, ideaID)
}

func (d *Dispatcher) ProfileViewed(ctx context.Context, ownerID, viewerID string) {
	d.Dispatch(ctx, ownerID, types.NotifProfileView,
		"Someone viewed your profile",
		"A user viewed your profile",
		"/profile", viewerID, "")
}

func (d *Dispatcher) CollaborationRequested(ctx context.Context, ownerID, requesterName, ideaID, ideaTitle, requesterID string) {
	d.Dispatch(ctx, ownerID, types.NotifCollaborationRequest,
		"New collaboration request",
		fmt.Sprintf("%s wants to collaborate on %q", requesterName, ideaTitle),
		"/requests", requesterID, ideaID)
}

func (d *Dispatcher) CollaborationAccepted(ctx context.Context, requesterID, ownerName, ideaID, ideaTitle, ownerID string) {
	d.Dispatch(ctx, requesterID, types.NotifCollaborationAccepted,
		"Collaboration request accepted!",
		fmt.Sprintf("%s accepted your request to collaborate on %q", ownerName, ideaTitle),
		"/ideas/"+ideaID, ownerID, ideaID)
}

func (d *Dispatcher) CollaborationRejected(ctx context.Context, requesterID, ideaTitle, ownerID, ideaID string) {
	d.Dispatch(ctx, requesterID, types.NotifCollaborationRejected,
		"Collaboration request declined",
		fmt.Sprintf("Your request to collaborate on %q was declined", ideaTitle),
		"/ideas/"+ideaID, ownerID, ideaID)
}

func (d *Dispatcher) NewMessage(ctx context.Context, recipientID, senderName, senderID string) {
	d.Dispatch(ctx, recipientID, types.NotifNewMessage,
		"New message",
		fmt.Sprintf("%s sent you a message", senderName),
		"/messages", senderID, "")
}
