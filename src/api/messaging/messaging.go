// Package messaging owns conversations between two users and the
// introductory-message gate: until a conversation is approved, each
// participant pair gets IntroLimit messages total, after which sends are
// refused until the idea owner approves the collaboration.
package messaging

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/idealink-app/idealink/src/api/data"
	"github.com/idealink-app/idealink/src/api/notify"
	"github.com/idealink-app/idealink/src/api/sanitize"
	"github.com/idealink-app/idealink/src/api/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// IntroLimit is the number of messages allowed before approval.
const IntroLimit = 2

var (
	ErrMessageLimit   = errors.New("introductory message limit reached")
	ErrNotParticipant = errors.New("not a participant of this conversation")
	ErrBlocked        = errors.New("messaging between these users is blocked")
	ErrSelfChat       = errors.New("cannot start a conversation with yourself")
	ErrEmptyMessage   = errors.New("message content is empty")
)

type Service struct {
	db       *gorm.DB
	rdb      *redis.Client
	dispatch *notify.Dispatcher
}

func NewService(db *gorm.DB, rdb *redis.Client, dispatch *notify.Dispatcher) *Service {
	return &Service{db: db, rdb: rdb, dispatch: dispatch}
}

// NormalizePair orders two participant ids so the smaller one is first.
func NormalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func (s *Service) blocked(ctx context.Context, a, b string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&types.BlockedUser{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&n).Error
	return n > 0, err
}

// GetOrCreate returns the conversation for the unordered pair, creating an
// unapproved one if none exists. A concurrent create by the other
// participant loses the unique-index race and falls back to lookup.
func (s *Service) GetOrCreate(ctx context.Context, userA, userB, ideaID string) (*types.Conversation, error) {
	if userA == userB {
		return nil, ErrSelfChat
	}
	if blocked, err := s.blocked(ctx, userA, userB); err != nil {
		return nil, err
	} else if blocked {
		return nil, ErrBlocked
	}

	one, two := NormalizePair(userA, userB)
	var conv types.Conversation
	err := s.db.WithContext(ctx).
		First(&conv, "participant_one = ? AND participant_two = ?", one, two).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = types.Conversation{
		ParticipantOne: one,
		ParticipantTwo: two,
		IdeaID:         ideaID,
	}
	err = s.db.WithContext(ctx).Create(&conv).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = s.db.WithContext(ctx).
			First(&conv, "participant_one = ? AND participant_two = ?", one, two).Error
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// Send appends a message. Unapproved conversations accept at most
// IntroLimit messages; each accepted pre-approval send bumps the counter.
// The recipient is notified and the message is published on the
// conversation's channel, both best effort.
func (s *Service) Send(ctx context.Context, conversationID, senderID, content, fileURL, fileName string) (*types.Message, error) {
	content = sanitize.Text(content)
	if content == "" && fileURL == "" {
		return nil, ErrEmptyMessage
	}

	var conv types.Conversation
	if err := s.db.WithContext(ctx).First(&conv, "id = ?", conversationID).Error; err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}
	if !conv.IsApproved && conv.IntroMessagesCount >= IntroLimit {
		return nil, ErrMessageLimit
	}

	msg := types.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
		FileURL:        fileURL,
		FileName:       fileName,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		if conv.IsApproved {
			return tx.Model(&types.Conversation{}).Where("id = ?", conv.ID).
				Update("updated_at", time.Now()).Error
		}
		// Racing pre-approval sends serialize on this conditional update, not
		// on the earlier read of the counter.
		res := tx.Model(&types.Conversation{}).
			Where("id = ? AND is_approved = ? AND intro_messages_count < ?", conv.ID, false, IntroLimit).
			Updates(map[string]interface{}{
				"updated_at":           time.Now(),
				"intro_messages_count": gorm.Expr("intro_messages_count + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var cur types.Conversation
			if err := tx.First(&cur, "id = ?", conv.ID).Error; err != nil {
				return err
			}
			if !cur.IsApproved {
				return ErrMessageLimit
			}
			return tx.Model(&types.Conversation{}).Where("id = ?", conv.ID).
				Update("updated_at", time.Now()).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var sender types.Profile
	if err := s.db.WithContext(ctx).First(&sender, "id = ?", senderID).Error; err == nil {
		s.dispatch.NewMessage(ctx, conv.Other(senderID), sender.FullName, senderID)
	}
	if err := data.PublishMessageEvent(ctx, s.rdb, conv.ID, msg); err != nil {
		log.Printf("publish message %s: %v", msg.ID, err)
	}
	return &msg, nil
}

// Approve lifts the intro gate. The counter is left as is; it only matters
// while the conversation is unapproved.
func (s *Service) Approve(ctx context.Context, conversationID string) error {
	return s.db.WithContext(ctx).Model(&types.Conversation{}).
		Where("id = ?", conversationID).
		Update("is_approved", true).Error
}

// ApprovePair approves the conversation between two users if one exists.
// Called from the collaboration-request approval flow.
func (s *Service) ApprovePair(ctx context.Context, userA, userB string) error {
	one, two := NormalizePair(userA, userB)
	return s.db.WithContext(ctx).Model(&types.Conversation{}).
		Where("participant_one = ? AND participant_two = ?", one, two).
		Update("is_approved", true).Error
}

// MarkRead flags every message the reader did not send as read.
func (s *Service) MarkRead(ctx context.Context, conversationID, readerID string) error {
	return s.db.WithContext(ctx).Model(&types.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true).Error
}

// Messages returns the conversation history oldest-first and marks the
// returned messages read for the viewer.
func (s *Service) Messages(ctx context.Context, conversationID, viewerID string) ([]types.Message, error) {
	var conv types.Conversation
	if err := s.db.WithContext(ctx).First(&conv, "id = ?", conversationID).Error; err != nil {
		return nil, err
	}
	if !conv.HasParticipant(viewerID) {
		return nil, ErrNotParticipant
	}
	var msgs []types.Message
	if err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").Find(&msgs).Error; err != nil {
		return nil, err
	}
	if err := s.MarkRead(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}
	return msgs, nil
}

// ConversationView is a conversation decorated for the inbox listing.
type ConversationView struct {
	types.Conversation
	OtherParticipant *types.Profile `json:"other_participant,omitempty"`
	LastMessage      *types.Message `json:"last_message,omitempty"`
	UnreadCount      int64          `json:"unread_count"`
}

// List returns the user's conversations, most recently active first.
func (s *Service) List(ctx context.Context, userID string) ([]ConversationView, error) {
	var convs []types.Conversation
	if err := s.db.WithContext(ctx).
		Where("participant_one = ? OR participant_two = ?", userID, userID).
		Order("updated_at desc").Find(&convs).Error; err != nil {
		return nil, err
	}

	views := make([]ConversationView, 0, len(convs))
	for _, conv := range convs {
		view := ConversationView{Conversation: conv}

		var other types.Profile
		if err := s.db.WithContext(ctx).First(&other, "id = ?", conv.Other(userID)).Error; err == nil {
			view.OtherParticipant = &other
		}

		var last types.Message
		err := s.db.WithContext(ctx).
			Where("conversation_id = ?", conv.ID).
			Order("created_at desc").Limit(1).Find(&last).Error
		if err == nil && last.ID != "" {
			view.LastMessage = &last
		}

		s.db.WithContext(ctx).Model(&types.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conv.ID, userID, false).
			Count(&view.UnreadCount)

		views = append(views, view)
	}
	return views, nil
}

// Get returns a conversation the viewer participates in.
func (s *Service) Get(ctx context.Context, conversationID, viewerID string) (*types.Conversation, error) {
	var conv types.Conversation
	if err := s.db.WithContext(ctx).First(&conv, "id = ?", conversationID).Error; err != nil {
		return nil, err
	}
	if !conv.HasParticipant(viewerID) {
		return nil, ErrNotParticipant
	}
	return &conv, nil
}
