package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

const (
	// PresenceKey is a sorted set of user ids scored by last-seen unix time.
	PresenceKey = "presence:active"
	// PresenceWindow is how long a user counts as active after their last
	// heartbeat.
	PresenceWindow = 5 * time.Minute
)

// UserChannel is the pub/sub channel carrying updates for one user.
func UserChannel(userID uuid.UUID) string {
	return "user_updates:" + userID.String()
}

// Publish sends msg to every socket the user holds, on any instance.
func Publish(ctx context.Context, client *redis.Client, userID uuid.UUID, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal ws message: %w", err)
	}
	return client.Publish(ctx, UserChannel(userID), data).Err()
}

// Presence tracks connected users in Redis so every instance sees the same
// count.
type Presence struct {
	redis *redis.Client
	now   func() time.Time
}

func NewPresence(client *redis.Client) *Presence {
	return &Presence{redis: client, now: time.Now}
}

func (p *Presence) Touch(ctx context.Context, userID uuid.UUID) error {
	return p.redis.ZAdd(ctx, PresenceKey, redis.Z{
		Score:  float64(p.now().Unix()),
		Member: userID.String(),
	}).Err()
}

func (p *Presence) Remove(ctx context.Context, userID uuid.UUID) error {
	return p.redis.ZRem(ctx, PresenceKey, userID.String()).Err()
}

// ActiveCount prunes stale entries and returns the number left.
func (p *Presence) ActiveCount(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-PresenceWindow).Unix()

	pipe := p.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, PresenceKey, "-inf", "("+strconv.FormatInt(cutoff, 10))
	card := pipe.ZCard(ctx, PresenceKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("count presence: %w", err)
	}
	return card.Val(), nil
}
