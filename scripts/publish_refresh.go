//go:build ignore

// Queues a profile refresh by hand:
//
//	go run scripts/publish_refresh.go -user 123456789012345678
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type userRefreshEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	UserID      string    `json:"user_id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address")
	userID := flag.String("user", "", "Discord user id")
	reason := flag.String("reason", "manual", "refresh reason")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user is required")
	}

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	data, err := json.Marshal(userRefreshEvent{
		EventID:     uuid.New(),
		UserID:      *userID,
		Reason:      *reason,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:user:refresh",
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Queued refresh of %s as %s\n", *userID, id)

	// wait for the worker to ack
	deadline := time.After(30 * time.Second)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			fmt.Println("Still pending after 30s, is the worker running?")
			return
		case <-ticker.C:
			groups, err := client.XInfoGroups(context.Background(), "stream:user:refresh").Result()
			if err != nil {
				continue
			}
			for _, g := range groups {
				// ids of the same millisecond width compare as strings
				if g.Pending == 0 && g.LastDeliveredID >= id {
					fmt.Printf("Processed by group %s\n", g.Name)
					return
				}
			}
		}
	}
}
