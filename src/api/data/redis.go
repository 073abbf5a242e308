package data

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

const convChannelPrefix = "conv:"

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// ConvChannel is the pub/sub channel carrying new-message events for a
// conversation.
func ConvChannel(conversationID string) string {
	return convChannelPrefix + conversationID
}

// PublishMessageEvent fans a new message out to subscribers of the
// conversation's channel. Delivery is best effort.
func PublishMessageEvent(ctx context.Context, rdb *redis.Client, conversationID string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, ConvChannel(conversationID), raw).Err()
}
