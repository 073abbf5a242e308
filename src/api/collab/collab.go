// Package collab implements the collaboration-request workflow: a non-owner
// asks to join an idea, the owner approves or rejects exactly once.
package collab

import (
	"context"
	"errors"
	"log"

	"github.com/idealink-app/idealink/src/api/messaging"
	"github.com/idealink-app/idealink/src/api/notify"
	"github.com/idealink-app/idealink/src/api/sanitize"
	"github.com/idealink-app/idealink/src/api/types"
	"gorm.io/gorm"
)

var (
	ErrDuplicateRequest = errors.New("collaboration already requested for this idea")
	ErrSelfRequest      = errors.New("cannot request collaboration on your own idea")
	ErrNotOwner         = errors.New("only the idea owner can decide this request")
	ErrAlreadyDecided   = errors.New("request has already been decided")
	ErrVersionConflict  = errors.New("request was modified concurrently")
	ErrBadDecision      = errors.New("decision must be approved or rejected")
)

type Service struct {
	db       *gorm.DB
	dispatch *notify.Dispatcher
	convs    *messaging.Service
}

func NewService(db *gorm.DB, dispatch *notify.Dispatcher, convs *messaging.Service) *Service {
	return &Service{db: db, dispatch: dispatch, convs: convs}
}

// Create inserts a pending request for (idea, requester). The unique index
// on the pair backs the duplicate check, so a double submit surfaces as
// ErrDuplicateRequest without a second row. The idea owner is notified.
func (s *Service) Create(ctx context.Context, ideaID, requesterID, message string) (*types.CollaborationRequest, error) {
	var idea types.Idea
	if err := s.db.WithContext(ctx).First(&idea, "id = ?", ideaID).Error; err != nil {
		return nil, err
	}
	if idea.OwnerID == requesterID {
		return nil, ErrSelfRequest
	}

	req := types.CollaborationRequest{
		IdeaID:      idea.ID,
		RequesterID: requesterID,
		OwnerID:     idea.OwnerID,
		Status:      types.StatusPending,
		Message:     sanitize.Text(message),
	}
	if err := s.db.WithContext(ctx).Create(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}

	var requester types.Profile
	if err := s.db.WithContext(ctx).First(&requester, "id = ?", requesterID).Error; err == nil {
		s.dispatch.CollaborationRequested(ctx, idea.OwnerID, requester.FullName, idea.ID, idea.Title, requesterID)
	}
	return &req, nil
}

// Decide transitions a pending request to approved or rejected. The update
// is a compare-and-swap on (status, version): a stale version or a repeat
// decision changes nothing and reports why. Approval also lifts the intro
// gate on the requester/owner conversation, and the requester is notified
// either way.
func (s *Service) Decide(ctx context.Context, requestID, deciderID, decision string, version uint32) (*types.CollaborationRequest, error) {
	if decision != types.StatusApproved && decision != types.StatusRejected {
		return nil, ErrBadDecision
	}

	var req types.CollaborationRequest
	if err := s.db.WithContext(ctx).First(&req, "id = ?", requestID).Error; err != nil {
		return nil, err
	}
	if req.OwnerID != deciderID {
		return nil, ErrNotOwner
	}

	res := s.db.WithContext(ctx).Model(&types.CollaborationRequest{}).
		Where("id = ? AND status = ? AND version = ?", req.ID, types.StatusPending, version).
		Updates(map[string]interface{}{
			"status":  decision,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if err := s.db.WithContext(ctx).First(&req, "id = ?", req.ID).Error; err != nil {
			return nil, err
		}
		if req.Status != types.StatusPending {
			return nil, ErrAlreadyDecided
		}
		return nil, ErrVersionConflict
	}
	req.Status = decision
	req.Version = version + 1

	var idea types.Idea
	ideaTitle := "Unknown Idea"
	if err := s.db.WithContext(ctx).First(&idea, "id = ?", req.IdeaID).Error; err == nil {
		ideaTitle = idea.Title
	}

	if decision == types.StatusApproved {
		// The decision is already persisted at this point; lifting the
		// conversation gate is best effort like the notifications below.
		if err := s.convs.ApprovePair(ctx, req.RequesterID, req.OwnerID); err != nil {
			log.Printf("approve conversation for request %s: %v", req.ID, err)
		}
		var owner types.Profile
		if err := s.db.WithContext(ctx).First(&owner, "id = ?", deciderID).Error; err == nil {
			s.dispatch.CollaborationAccepted(ctx, req.RequesterID, owner.FullName, req.IdeaID, ideaTitle, deciderID)
		}
	} else {
		s.dispatch.CollaborationRejected(ctx, req.RequesterID, ideaTitle, deciderID, req.IdeaID)
	}
	return &req, nil
}

// Incoming lists requests awaiting or decided by the owner, newest first.
func (s *Service) Incoming(ctx context.Context, ownerID string) ([]types.CollaborationRequest, error) {
	var reqs []types.CollaborationRequest
	err := s.db.WithContext(ctx).
		Preload("Requester").Preload("Idea").
		Where("owner_id = ?", ownerID).
		Order("created_at desc").Find(&reqs).Error
	return reqs, err
}

// Sent lists requests made by the requester, newest first.
func (s *Service) Sent(ctx context.Context, requesterID string) ([]types.CollaborationRequest, error) {
	var reqs []types.CollaborationRequest
	err := s.db.WithContext(ctx).
		Preload("Requester").Preload("Idea").
		Where("requester_id = ?", requesterID).
		Order("created_at desc").Find(&reqs).Error
	return reqs, err
}

// StatusFor returns the requester's request status for an idea, or "" when
// none exists.
func (s *Service) StatusFor(ctx context.Context, ideaID, requesterID string) (string, error) {
	var req types.CollaborationRequest
	err := s.db.WithContext(ctx).
		First(&req, "idea_id = ? AND requester_id = ?", ideaID, requesterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return req.Status, nil
}

// Approved reports whether the user has an approved request for the idea.
func (s *Service) Approved(ctx context.Context, ideaID, userID string) (bool, error) {
	status, err := s.StatusFor(ctx, ideaID, userID)
	return status == types.StatusApproved, err
}
