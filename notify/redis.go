package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/yeremiapane/tableside/utils"
)

// RedisEmitter publishes events on the per-branch channel "branch:<id>:events".
type RedisEmitter struct {
	Client  *redis.Client
	Timeout time.Duration
}

func NewRedisEmitter(addr string) *RedisEmitter {
	return &RedisEmitter{
		Client:  redis.NewClient(&redis.Options{Addr: addr}),
		Timeout: 2 * time.Second,
	}
}

func BranchChannel(branchID uint) string {
	return fmt.Sprintf("branch:%d:events", branchID)
}

func (r *RedisEmitter) Emit(branchID uint, eventType string, refID string) {
	payload, err := json.Marshal(newMessage(branchID, eventType, refID))
	if err != nil {
		utils.ErrorLogger.Errorf("REDIS: marshal %s: %v", eventType, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()

	if err := r.Client.Publish(ctx, BranchChannel(branchID), payload).Err(); err != nil {
		utils.ErrorLogger.Errorf("REDIS: publish %s for %s: %v", eventType, refID, err)
	}
}

func (r *RedisEmitter) Close() error {
	return r.Client.Close()
}
