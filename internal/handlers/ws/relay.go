package ws

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Luismi76/cursos/internal/cache"
	"github.com/Luismi76/cursos/internal/events"
	"github.com/google/uuid"
)

const (
	relayChannelPrefix = "cursos:chat:course:"
	relayPublishWait   = 2 * time.Second
)

func relayChannel(courseID uuid.UUID) string {
	return relayChannelPrefix + courseID.String()
}

func relayCourse(channel string) (uuid.UUID, error) {
	if !strings.HasPrefix(channel, relayChannelPrefix) {
		return uuid.Nil, fmt.Errorf("not a course channel: %s", channel)
	}
	return uuid.Parse(strings.TrimPrefix(channel, relayChannelPrefix))
}

// RedisRelay shares course frames between instances over Redis Pub/Sub.
// Every instance, including the publisher, receives frames through Run.
type RedisRelay struct {
	redis *cache.RedisCache
	hub   *Hub
}

func NewRedisRelay(redis *cache.RedisCache, hub *Hub) *RedisRelay {
	return &RedisRelay{redis: redis, hub: hub}
}

// Publish sends the frame through Redis, falling back to local delivery when
// Redis rejects it.
func (r *RedisRelay) Publish(ev events.Event) {
	frame, err := events.Encode(ev)
	if err != nil {
		log.Printf("Error encoding %s event for course %s: %v", ev.Kind(), ev.CourseID(), err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), relayPublishWait)
	defer cancel()
	if err := r.redis.Publish(ctx, relayChannel(ev.CourseID()), frame); err != nil {
		log.Printf("Relay publish failed for course %s, delivering locally: %v", ev.CourseID(), err)
		r.hub.Broadcast(ev.CourseID(), frame)
	}
}

// Run feeds relayed frames into the local hub until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.redis.PSubscribe(ctx, relayChannelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			courseID, err := relayCourse(msg.Channel)
			if err != nil {
				log.Printf("Ignoring relay frame on %s: %v", msg.Channel, err)
				continue
			}
			r.hub.Broadcast(courseID, []byte(msg.Payload))
		}
	}
}
