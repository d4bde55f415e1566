package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"onduty-admin/internal/config"
	"onduty-admin/internal/model"

	"github.com/go-redis/redis/v8"
)

type Producer struct {
	client *redis.Client
	cfg    *config.RedisConfig
}

func NewProducer(redisClient *RedisClient, cfg *config.RedisConfig) *Producer {
	return &Producer{
		client: redisClient.Client(),
		cfg:    cfg,
	}
}

func (p *Producer) EnqueueImportJob(ctx context.Context, job model.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal import job: %w", err)
	}

	return p.client.LPush(ctx, p.cfg.ImportQueue, data).Err()
}

// OnMutation publishes the event for dashboards listening on the mutation
// channel.
func (p *Producer) OnMutation(ctx context.Context, event model.MutationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal mutation event: %w", err)
	}

	return p.client.Publish(ctx, p.cfg.MutationChannel, data).Err()
}
