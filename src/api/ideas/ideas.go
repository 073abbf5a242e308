// Package ideas owns idea CRUD, the preview-visibility gate, and upvote
// toggling.
package ideas

import (
	"context"
	"errors"

	"github.com/idealink-app/idealink/src/api/sanitize"
	"github.com/idealink-app/idealink/src/api/types"
	"gorm.io/gorm"
)

var ErrNotIdeaOwner = errors.New("only the idea owner can modify it")

// CollabChecker reports whether a user holds an approved collaboration
// request for an idea. Satisfied by collab.Service.
type CollabChecker interface {
	Approved(ctx context.Context, ideaID, userID string) (bool, error)
}

type Service struct {
	db     *gorm.DB
	collab CollabChecker
}

func NewService(db *gorm.DB, collab CollabChecker) *Service {
	return &Service{db: db, collab: collab}
}

type Draft struct {
	Title            string
	ProblemStatement string
	HighLevelConcept string
	DetailedSolution string
	TargetAudience   string
	Visibility       string
	Category         string
	LookingFor       []string
}

func (d *Draft) sanitized() Draft {
	return Draft{
		Title:            sanitize.Text(d.Title),
		ProblemStatement: sanitize.Text(d.ProblemStatement),
		HighLevelConcept: sanitize.Text(d.HighLevelConcept),
		DetailedSolution: sanitize.Text(d.DetailedSolution),
		TargetAudience:   sanitize.Text(d.TargetAudience),
		Visibility:       d.Visibility,
		Category:         d.Category,
		LookingFor:       d.LookingFor,
	}
}

func (s *Service) Create(ctx context.Context, ownerID string, draft Draft) (*types.Idea, error) {
	d := draft.sanitized()
	idea := types.Idea{
		OwnerID:          ownerID,
		Title:            d.Title,
		ProblemStatement: d.ProblemStatement,
		HighLevelConcept: d.HighLevelConcept,
		DetailedSolution: d.DetailedSolution,
		TargetAudience:   d.TargetAudience,
		Visibility:       d.Visibility,
		Category:         d.Category,
		LookingFor:       d.LookingFor,
	}
	if err := s.db.WithContext(ctx).Create(&idea).Error; err != nil {
		return nil, err
	}
	return &idea, nil
}

func (s *Service) Update(ctx context.Context, ideaID, callerID string, draft Draft) (*types.Idea, error) {
	var idea types.Idea
	if err := s.db.WithContext(ctx).First(&idea, "id = ?", ideaID).Error; err != nil {
		return nil, err
	}
	if idea.OwnerID != callerID {
		return nil, ErrNotIdeaOwner
	}
	d := draft.sanitized()
	updates := map[string]interface{}{
		"title":              d.Title,
		"problem_statement":  d.ProblemStatement,
		"high_level_concept": d.HighLevelConcept,
		"detailed_solution":  d.DetailedSolution,
		"target_audience":    d.TargetAudience,
		"visibility":         d.Visibility,
		"category":           d.Category,
		"looking_for":        types.StringList(d.LookingFor),
	}
	if err := s.db.WithContext(ctx).Model(&idea).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &idea, nil
}

func (s *Service) Delete(ctx context.Context, ideaID, callerID string) error {
	var idea types.Idea
	if err := s.db.WithContext(ctx).First(&idea, "id = ?", ideaID).Error; err != nil {
		return err
	}
	if idea.OwnerID != callerID {
		return ErrNotIdeaOwner
	}
	return s.db.WithContext(ctx).Delete(&idea).Error
}

// List returns ideas newest first, optionally filtered by category and by a
// role the owner is looking for.
func (s *Service) List(ctx context.Context, category, lookingFor string) ([]types.Idea, error) {
	q := s.db.WithContext(ctx).Preload("Owner").Order("created_at desc")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if lookingFor != "" {
		q = q.Where("looking_for LIKE ?", "%\""+lookingFor+"\"%")
	}
	var out []types.Idea
	err := q.Find(&out).Error
	return out, err
}

// ByOwner returns the owner's ideas newest first.
func (s *Service) ByOwner(ctx context.Context, ownerID string) ([]types.Idea, error) {
	var out []types.Idea
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").Find(&out).Error
	return out, err
}

// Detail returns the idea as the viewer may see it. For preview ideas the
// detailed solution is stripped unless the viewer is the owner or an
// approved collaborator.
func (s *Service) Detail(ctx context.Context, ideaID, viewerID string) (*types.Idea, error) {
	var idea types.Idea
	if err := s.db.WithContext(ctx).Preload("Owner").First(&idea, "id = ?", ideaID).Error; err != nil {
		return nil, err
	}
	if idea.Visibility == types.VisibilityPreview && idea.OwnerID != viewerID {
		approved := false
		if viewerID != "" {
			var err error
			approved, err = s.collab.Approved(ctx, idea.ID, viewerID)
			if err != nil {
				return nil, err
			}
		}
		if !approved {
			idea.DetailedSolution = ""
		}
	}
	return &idea, nil
}

// ToggleUpvote adds the user's upvote if absent, removes it if present, and
// keeps the denormalized counter in step. Returns the new state and count.
func (s *Service) ToggleUpvote(ctx context.Context, ideaID, userID string) (upvoted bool, count int64, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var idea types.Idea
		if err := tx.First(&idea, "id = ?", ideaID).Error; err != nil {
			return err
		}

		var existing types.IdeaUpvote
		lookupErr := tx.First(&existing, "idea_id = ? AND user_id = ?", ideaID, userID).Error
		switch {
		case lookupErr == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			if err := tx.Model(&types.Idea{}).Where("id = ?", ideaID).
				Update("upvotes", gorm.Expr("upvotes - 1")).Error; err != nil {
				return err
			}
			upvoted = false
		case errors.Is(lookupErr, gorm.ErrRecordNotFound):
			vote := types.IdeaUpvote{IdeaID: ideaID, UserID: userID}
			if err := tx.Create(&vote).Error; err != nil {
				// lost a toggle race; treat as already upvoted
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					upvoted = true
					return nil
				}
				return err
			}
			if err := tx.Model(&types.Idea{}).Where("id = ?", ideaID).
				Update("upvotes", gorm.Expr("upvotes + 1")).Error; err != nil {
				return err
			}
			upvoted = true
		default:
			return lookupErr
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	var idea types.Idea
	if err := s.db.WithContext(ctx).First(&idea, "id = ?", ideaID).Error; err != nil {
		return upvoted, 0, err
	}
	return upvoted, idea.Upvotes, nil
}
