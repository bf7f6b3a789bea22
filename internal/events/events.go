// Package events publishes content change notifications for connected admin clients.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel 是所有内容变更事件共用的 Redis Pub/Sub 频道。
const Channel = "folio:events"

// 事件类型。
const (
	TypeCreated           = "content.created"
	TypeUpdated           = "content.updated"
	TypeDeleted           = "content.deleted"
	TypeMediaUploaded     = "media.uploaded"
	TypeMediaDeleted      = "media.deleted"
	TypeMediaDeleteFailed = "media.delete_failed"
)

// Event 通过 WebSocket 原样转发给前端，字段名与前端解析保持一致。
type Event struct {
	Type          string    `json:"type"`
	Resource      string    `json:"resource"`
	ID            string    `json:"id,omitempty"`
	CorrelationID string    `json:"correlationId,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher 发布内容变更事件。
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type redisPublishClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes events on Channel.
type RedisPublisher struct {
	client redisPublishClient
}

// NewRedisPublisher constructs a RedisPublisher.
func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish 序列化事件并发布，没有订阅者时消息直接丢弃。
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// NopPublisher drops every event. Used when Redis is disabled.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

type redisSubscribeClient interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisSubscriber 订阅 Channel，把消息负载交给 WebSocket 转发。
type RedisSubscriber struct {
	client redisSubscribeClient
}

// NewRedisSubscriber constructs a RedisSubscriber.
func NewRedisSubscriber(client redis.UniversalClient) *RedisSubscriber {
	return &RedisSubscriber{client: client}
}

// Listen 在订阅确认后返回负载流；ctx 结束或调用 stop 后流关闭。
func (s *RedisSubscriber) Listen(ctx context.Context) (<-chan string, func() error, error) {
	pubsub := s.client.Subscribe(ctx, Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	messages := pubsub.Channel()
	payloads := make(chan string)
	go func() {
		defer close(payloads)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case payloads <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return payloads, pubsub.Close, nil
}
