package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/idealink-app/idealink/src/api/types"
)

func newDispatcher(t *testing.T) (*Dispatcher, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&types.Notification{}))
	return NewDispatcher(db), db
}

func TestDispatchInserts(t *testing.T) {
	d, db := newDispatcher(t)

	d.Dispatch(context.Background(), "bob", types.NotifNewMessage,
		"New message", "Alice sent you a message", "/messages", "alice", "")

	var notifs []types.Notification
	require.NoError(t, db.Find(&notifs).Error)
	require.Len(t, notifs, 1)
	require.Equal(t, "bob", notifs[0].UserID)
	require.Equal(t, "alice", notifs[0].ActorID)
	require.False(t, notifs[0].IsRead)
}

func TestDispatchSuppressesSelf(t *testing.T) {
	d, db := newDispatcher(t)

	d.Dispatch(context.Background(), "alice", types.NotifProfileView,
		"Someone viewed your profile", "A user viewed your profile", "/profile", "alice", "")

	var count int64
	db.Model(&types.Notification{}).Count(&count)
	require.Zero(t, count)
}

func TestTemplates(t *testing.T) {
	d, db := newDispatcher(t)

	d.IdeaViewed(context.Background(), "owner", "idea-1", "Solar Microgrids", "viewer")
	d.CollaborationRequested(context.Background(), "owner", "Rita", "idea-1", "Solar Microgrids", "req")
	d.CollaborationAccepted(context.Background(), "req", "Olive", "idea-1", "Solar Microgrids", "owner")
	d.CollaborationRejected(context.Background(), "req", "Solar Microgrids", "owner", "idea-1")
	d.NewMessage(context.Background(), "bob", "Alice", "alice")

	var notifs []types.Notification
	require.NoError(t, db.Order("created_at").Find(&notifs).Error)
	require.Len(t, notifs, 5)

	byType := map[string]types.Notification{}
	for _, n := range notifs {
		byType[n.Type] = n
	}
	require.Equal(t, `Your idea "Solar Microgrids" was viewed`, byType[types.NotifIdeaView].Message)
	require.Equal(t, `Rita wants to collaborate on "Solar Microgrids"`, byType[types.NotifCollaborationRequest].Message)
	require.Equal(t, `Olive accepted your request to collaborate on "Solar Microgrids"`, byType[types.NotifCollaborationAccepted].Message)
	require.Equal(t, `Your request to collaborate on "Solar Microgrids" was declined`, byType[types.NotifCollaborationRejected].Message)
	require.Equal(t, "Alice sent you a message", byType[types.NotifNewMessage].Message)
	require.Equal(t, "/ideas/idea-1", byType[types.NotifIdeaView].Link)
}

func TestViewGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	g := NewViewGuard(rdb, time.Hour)

	ctx := context.Background()
	require.True(t, g.FirstView(ctx, "sess-1", "idea", "idea-1"))
	require.False(t, g.FirstView(ctx, "sess-1", "idea", "idea-1"))

	// Different target and different session both notify again.
	require.True(t, g.FirstView(ctx, "sess-1", "idea", "idea-2"))
	require.True(t, g.FirstView(ctx, "sess-2", "idea", "idea-1"))

	// Expiry reopens the guard within the same session.
	mr.FastForward(2 * time.Hour)
	require.True(t, g.FirstView(ctx, "sess-1", "idea", "idea-1"))
}
