package ideas

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/idealink-app/idealink/src/api/types"
)

type stubCollab struct {
	approved map[string]bool // requester id -> approved
}

func (s stubCollab) Approved(_ context.Context, _, userID string) (bool, error) {
	return s.approved[userID], nil
}

func newService(t *testing.T, checker CollabChecker) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&types.Profile{}, &types.Idea{}, &types.IdeaUpvote{}))
	if checker == nil {
		checker = stubCollab{}
	}
	return NewService(db, checker), db
}

func seedOwner(t *testing.T, db *gorm.DB) types.Profile {
	t.Helper()
	owner := types.Profile{ID: "owner", UserID: "u-owner", Email: "o@example.com",
		FullName: "Olive Owner", Role: types.RoleIdeaOwner}
	require.NoError(t, db.Create(&owner).Error)
	return owner
}

func draft(visibility string) Draft {
	return Draft{
		Title:            "Solar Microgrids",
		ProblemStatement: "Rural areas lack stable power",
		HighLevelConcept: "Community-owned microgrids",
		DetailedSolution: "Mesh inverters with prepaid metering",
		Visibility:       visibility,
		Category:         "tech",
		LookingFor:       []string{types.RoleDeveloper},
	}
}

func TestCreateAndOwnerOnlyMutation(t *testing.T) {
	svc, db := newService(t, nil)
	owner := seedOwner(t, db)

	idea, err := svc.Create(context.Background(), owner.ID, draft(types.VisibilityPublic))
	require.NoError(t, err)
	require.Equal(t, owner.ID, idea.OwnerID)

	_, err = svc.Update(context.Background(), idea.ID, "stranger", draft(types.VisibilityPublic))
	require.ErrorIs(t, err, ErrNotIdeaOwner)

	err = svc.Delete(context.Background(), idea.ID, "stranger")
	require.ErrorIs(t, err, ErrNotIdeaOwner)

	require.NoError(t, svc.Delete(context.Background(), idea.ID, owner.ID))
}

func TestPreviewHidesDetailedSolution(t *testing.T) {
	svc, db := newService(t, stubCollab{approved: map[string]bool{"collab": true}})
	owner := seedOwner(t, db)

	idea, err := svc.Create(context.Background(), owner.ID, draft(types.VisibilityPreview))
	require.NoError(t, err)

	got, err := svc.Detail(context.Background(), idea.ID, "stranger")
	require.NoError(t, err)
	require.Empty(t, got.DetailedSolution)

	got, err = svc.Detail(context.Background(), idea.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "Mesh inverters with prepaid metering", got.DetailedSolution)

	got, err = svc.Detail(context.Background(), idea.ID, "collab")
	require.NoError(t, err)
	require.Equal(t, "Mesh inverters with prepaid metering", got.DetailedSolution)

	// The stored row keeps the solution either way.
	var stored types.Idea
	require.NoError(t, db.First(&stored, "id = ?", idea.ID).Error)
	require.Equal(t, "Mesh inverters with prepaid metering", stored.DetailedSolution)
}

func TestPublicShowsDetailedSolution(t *testing.T) {
	svc, db := newService(t, nil)
	owner := seedOwner(t, db)

	idea, err := svc.Create(context.Background(), owner.ID, draft(types.VisibilityPublic))
	require.NoError(t, err)

	got, err := svc.Detail(context.Background(), idea.ID, "stranger")
	require.NoError(t, err)
	require.Equal(t, "Mesh inverters with prepaid metering", got.DetailedSolution)
}

func TestToggleUpvoteRoundTrip(t *testing.T) {
	svc, db := newService(t, nil)
	owner := seedOwner(t, db)

	idea, err := svc.Create(context.Background(), owner.ID, draft(types.VisibilityPublic))
	require.NoError(t, err)

	upvoted, count, err := svc.ToggleUpvote(context.Background(), idea.ID, "fan")
	require.NoError(t, err)
	require.True(t, upvoted)
	require.EqualValues(t, 1, count)

	// A second user stacks on top.
	upvoted, count, err = svc.ToggleUpvote(context.Background(), idea.ID, "fan2")
	require.NoError(t, err)
	require.True(t, upvoted)
	require.EqualValues(t, 2, count)

	// Un-upvoting returns the count to where it started.
	upvoted, count, err = svc.ToggleUpvote(context.Background(), idea.ID, "fan")
	require.NoError(t, err)
	require.False(t, upvoted)
	require.EqualValues(t, 1, count)

	var votes int64
	db.Model(&types.IdeaUpvote{}).Where("idea_id = ?", idea.ID).Count(&votes)
	require.EqualValues(t, 1, votes)
}

func TestListFilters(t *testing.T) {
	svc, db := newService(t, nil)
	owner := seedOwner(t, db)

	_, err := svc.Create(context.Background(), owner.ID, draft(types.VisibilityPublic))
	require.NoError(t, err)

	other := draft(types.VisibilityPublic)
	other.Title = "Neighborhood Lending"
	other.Category = "social"
	other.LookingFor = []string{types.RoleInvestor}
	_, err = svc.Create(context.Background(), owner.ID, other)
	require.NoError(t, err)

	out, err := svc.List(context.Background(), "tech", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Solar Microgrids", out[0].Title)

	out, err = svc.List(context.Background(), "", types.RoleInvestor)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Neighborhood Lending", out[0].Title)
}
