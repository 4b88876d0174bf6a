package input

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultObjectiveStream is the stream objectives are read from.
	DefaultObjectiveStream = "goalie.objectives"
	// DefaultAnswerStream is the stream answers are published to.
	DefaultAnswerStream = "goalie.answers"

	redisBlock = 5 * time.Second
)

// ConnectRedis parses a redis:// URL and returns a client.
func ConnectRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// RedisSource reads objectives from a Redis stream and publishes answers to
// another. Each stream entry carries an "objective" field; the entry id is
// echoed back as "objective_id" on the answer.
type RedisSource struct {
	rdb          *redis.Client
	stream       string
	answerStream string

	mu      sync.Mutex
	lastID  string
	current string
}

// NewRedisSource creates a source. lastID "$" reads only entries added after
// the first NextObjective call, "0" replays the stream from the beginning.
func NewRedisSource(rdb *redis.Client, stream, answerStream, lastID string) *RedisSource {
	if stream == "" {
		stream = DefaultObjectiveStream
	}
	if answerStream == "" {
		answerStream = DefaultAnswerStream
	}
	if lastID == "" {
		lastID = "$"
	}
	return &RedisSource{
		rdb:          rdb,
		stream:       stream,
		answerStream: answerStream,
		lastID:       lastID,
	}
}

// NextObjective blocks until an entry with a non-empty objective arrives.
func (r *RedisSource) NextObjective(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		lastID, err := r.cursor(ctx)
		if err != nil {
			return "", err
		}

		streams, err := r.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{r.stream, lastID},
			Count:   1,
			Block:   redisBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("read stream %s: %w", r.stream, err)
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				r.mu.Lock()
				r.lastID = msg.ID
				r.mu.Unlock()

				objective, ok := objectiveFromMessage(msg)
				if !ok {
					log.Printf("[input] warning: skipping stream entry %s without objective", msg.ID)
					continue
				}
				r.mu.Lock()
				r.current = msg.ID
				r.mu.Unlock()
				return objective, nil
			}
		}
	}
}

// cursor returns the id to read after. "$" is pinned to the stream's last
// entry on first use, so entries added between blocking reads are not missed.
func (r *RedisSource) cursor(ctx context.Context) (string, error) {
	r.mu.Lock()
	lastID := r.lastID
	r.mu.Unlock()
	if lastID != "$" {
		return lastID, nil
	}

	last, err := r.rdb.XRevRangeN(ctx, r.stream, "+", "-", 1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("read last id of %s: %w", r.stream, err)
	}
	lastID = startAfter(last)

	r.mu.Lock()
	r.lastID = lastID
	r.mu.Unlock()
	return lastID, nil
}

// startAfter picks the id of the newest entry, or "0-0" for an empty stream.
func startAfter(newest []redis.XMessage) string {
	if len(newest) == 0 {
		return "0-0"
	}
	return newest[0].ID
}

// Deliver publishes the result to the answer stream.
func (r *RedisSource) Deliver(ctx context.Context, res Result) error {
	r.mu.Lock()
	id := r.current
	r.current = ""
	r.mu.Unlock()

	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.answerStream,
		Values: answerValues(id, res, time.Now()),
	}).Result()
	if err != nil {
		return fmt.Errorf("publish answer to %s: %w", r.answerStream, err)
	}
	return nil
}

func objectiveFromMessage(msg redis.XMessage) (string, bool) {
	v, ok := msg.Values["objective"].(string)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func answerValues(objectiveID string, res Result, now time.Time) map[string]interface{} {
	values := map[string]interface{}{
		"objective_id": objectiveID,
		"objective":    res.Objective,
		"run_id":       res.RunID(),
		"time":         now.Unix(),
	}
	if res.Err != nil {
		values["status"] = "failed"
		values["error"] = res.Err.Error()
	} else {
		values["status"] = "completed"
		values["answer"] = res.Answer()
	}
	return values
}
