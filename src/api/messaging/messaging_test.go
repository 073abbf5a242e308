package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/idealink-app/idealink/src/api/data"
	"github.com/idealink-app/idealink/src/api/notify"
	"github.com/idealink-app/idealink/src/api/types"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.Profile{}, &types.Conversation{}, &types.Message{},
		&types.Notification{}, &types.BlockedUser{},
	))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return NewService(db, rdb, notify.NewDispatcher(db)), db
}

func seedProfiles(t *testing.T, db *gorm.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, db.Create(&types.Profile{
			ID: id, UserID: "u-" + id, Email: id + "@example.com",
			FullName: "User " + id, Role: types.RoleDeveloper,
		}).Error)
	}
}

func TestGetOrCreateNormalizesPair(t *testing.T) {
	svc, db := newService(t)
	seedProfiles(t, db, "alice", "bob")

	first, err := svc.GetOrCreate(context.Background(), "bob", "alice", "")
	require.NoError(t, err)
	require.Equal(t, "alice", first.ParticipantOne)
	require.Equal(t, "bob", first.ParticipantTwo)
	require.False(t, first.IsApproved)
	require.Zero(t, first.IntroMessagesCount)

	second, err := svc.GetOrCreate(context.Background(), "alice", "bob", "")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&types.Conversation{}).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestGetOrCreateRejectsSelfAndBlocked(t *testing.T) {
	svc, db := newService(t)
	seedProfiles(t, db, "alice", "bob")

	_, err := svc.GetOrCreate(context.Background(), "alice", "alice", "")
	require.ErrorIs(t, err, ErrSelfChat)

	require.NoError(t, db.Create(&types.BlockedUser{BlockerID: "bob", BlockedID: "alice"}).Error)
	_, err = svc.GetOrCreate(context.Background(), "alice", "bob", "")
	require.ErrorIs(t, err, ErrBlocked)
}

func TestIntroMessageCap(t *testing.T) {
	svc, db := newService(t)
	seedProfiles(t, db, "alice", "bob")

	conv, err := svc.GetOrCreate(context.Background(), "alice", "bob", "")
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), conv.ID, "alice", "hi", "", "")
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), conv.ID, "alice", "hello?", "", "")
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), conv.ID, "alice", "please answer", "", "")
	require.ErrorIs(t, err, ErrMessageLimit)

	var got types.Conversation
	require.NoError(t, db.First(&got, "id = ?", conv.ID).Error)
	require.Equal(t, IntroLimit, got.IntroMessagesCount)
}

func TestApprovedConversationSkipsCounter(t *testing.T) {
	svc, db := newService(t)
	seedProfiles(t, db, "alice", "bob")

	conv, err := svc.GetOrCreate(context.Background(), "alice", "bob", "")
	require.NoError(t, err)

	for i := 0; i < IntroLimit; i++ {
		_, err = svc.Send(context.Background(), conv.ID, "alice", "intro", "", "")
		require.NoError(t, err)
	}
	_, err = svc.Send(context.Background(), conv.ID, "alice", "blocked", "", "")
	require.ErrorIs(t, err, ErrMessageLimit)

	require.NoError(t, svc.Approve(context.Background(), conv.ID))

	_, err = svc.Send(context.Background(), conv.ID, "alice", "free at last", "", "")
	require.NoError(t, err)

	var got types.Conversation
	require.NoError(t, db.First(&got, "id = ?", conv.ID).Error)
	require.Equal(t, IntroLimit, got.IntroMessagesCount)
}

func TestSendRequiresParticipant(t *testing.T) {
	svc, db := newService(t)
	seedProfiles(t, db, "alice", "bob", "mallory")

	conv, err := svc.GetOrCreate(context.Background(), "alice", "bob", "")
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), conv.ID, "mallory", "let me in", "", "")
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestSendNotifiesRecipient(t *testing.T) {
	svc, db := newService(t)
	seedProfiles(t, db, "alice", "bob")

	conv, err := svc.GetOrCreate(context.Background(), "alice", "bob", "")
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), conv.ID, "alice", "hi bob", "", "")
	require.NoError(t, err)

	var notifs []types.Notification
	require.NoError(t, db.Find(&notifs, "user_id = ?", "bob").Error)
	require.Len(t, notifs, 1)
	require.Equal(t, types.NotifNewMessage, notifs[0].Type)
	require.Equal(t, "User alice sent you a message", notifs[0].Message)
}

func TestSendPublishesToConversationChannel(t *testing.T) {
	svc, db := newService(t)
	seedProfiles(t, db, "alice", "bob")

	conv, err := svc.GetOrCreate(context.Background(), "alice", "bob", "")
	require.NoError(t, err)

	sub := svc.rdb.Subscribe(context.Background(), data.ConvChannel(conv.ID))
	defer sub.Close()
	_, err = sub.Receive(context.Background()) // wait for the subscribe ack
	require.NoError(t, err)

	sent, err := svc.Send(context.Background(), conv.ID, "alice", "hi bob", "", "")
	require.NoError(t, err)

	select {
	case payload := <-sub.Channel():
		var got types.Message
		require.NoError(t, json.Unmarshal([]byte(payload.Payload), &got))
		require.Equal(t, sent.ID, got.ID)
		require.Equal(t, "hi bob", got.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no event on the conversation channel")
	}
}

func TestIntroCapHoldsUnderRacingSends(t *testing.T) {
	svc, db := newService(t)
	seedProfiles(t, db, "alice", "bob")

	conv, err := svc.GetOrCreate(context.Background(), "alice", "bob", "")
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), conv.ID, "alice", "first", "", "")
	require.NoError(t, err)

	// Simulate a send landing between this send's gate read and its counter
	// update: bump the counter to the cap right after the message insert.
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("bump_counter", func(tx *gorm.DB) {
		if m, ok := tx.Statement.Dest.(*types.Message); ok && m.Content == "sneaky" {
			tx.Session(&gorm.Session{NewDB: true}).
				Exec("UPDATE conversations SET intro_messages_count = ? WHERE id = ?", IntroLimit, conv.ID)
		}
	}))
	defer db.Callback().Create().Remove("bump_counter")

	_, err = svc.Send(context.Background(), conv.ID, "alice", "sneaky", "", "")
	require.ErrorIs(t, err, ErrMessageLimit)

	var got types.Conversation
	require.NoError(t, db.First(&got, "id = ?", conv.ID).Error)
	require.LessOrEqual(t, got.IntroMessagesCount, IntroLimit)

	var count int64
	db.Model(&types.Message{}).Where("conversation_id = ?", conv.ID).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestMessagesMarksRead(t *testing.T) {
	svc, _ := newService(t)
	db := svc.db
	seedProfiles(t, db, "alice", "bob")

	conv, err := svc.GetOrCreate(context.Background(), "alice", "bob", "")
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), conv.ID, "alice", "one", "", "")
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), conv.ID, "alice", "two", "", "")
	require.NoError(t, err)

	msgs, err := svc.Messages(context.Background(), conv.ID, "bob")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	var unread int64
	db.Model(&types.Message{}).
		Where("conversation_id = ? AND is_read = ?", conv.ID, false).Count(&unread)
	require.Zero(t, unread)
}

func TestListDecoratesConversations(t *testing.T) {
	svc, db := newService(t)
	seedProfiles(t, db, "alice", "bob")

	conv, err := svc.GetOrCreate(context.Background(), "alice", "bob", "")
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), conv.ID, "alice", "first", "", "")
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), conv.ID, "alice", "second", "", "")
	require.NoError(t, err)

	views, err := svc.List(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].OtherParticipant)
	require.Equal(t, "alice", views[0].OtherParticipant.ID)
	require.NotNil(t, views[0].LastMessage)
	require.Equal(t, "second", views[0].LastMessage.Content)
	require.EqualValues(t, 2, views[0].UnreadCount)
}

func TestApprovePair(t *testing.T) {
	svc, db := newService(t)
	seedProfiles(t, db, "alice", "bob")

	conv, err := svc.GetOrCreate(context.Background(), "alice", "bob", "")
	require.NoError(t, err)
	require.NoError(t, svc.ApprovePair(context.Background(), "bob", "alice"))

	var got types.Conversation
	require.NoError(t, db.First(&got, "id = ?", conv.ID).Error)
	require.True(t, got.IsApproved)
}
