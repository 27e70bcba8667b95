package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	dueSetKey     = "scheduler:due"
	taskKeyPrefix = "scheduler:task:"

	// Bodies outlive their fire time by this much so a slow worker can
	// still claim them; after that they are garbage.
	bodyGrace = 24 * time.Hour
)

// RedisScheduler keeps task ids in a sorted set scored by fire time,
// with task bodies in plain keys. Claiming pops due ids atomically via
// a Lua script, so each task is handed to at most one worker.
type RedisScheduler struct {
	client *redis.Client
}

func NewRedisScheduler(client *redis.Client) *RedisScheduler {
	return &RedisScheduler{client: client}
}

func (s *RedisScheduler) Schedule(ctx context.Context, handler string, payload any, fireAt time.Time) (Handle, error) {
	if !fireAt.After(time.Now()) {
		return "", ErrFireTimeInPast
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal task payload: %w", err)
	}

	task := Task{
		ID:      uuid.NewString(),
		Handler: handler,
		Payload: data,
		FireAt:  fireAt,
	}

	body, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("marshal task: %w", err)
	}

	ttl := time.Until(fireAt) + bodyGrace

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, taskKeyPrefix+task.ID, body, ttl)
	pipe.ZAdd(ctx, dueSetKey, redis.Z{Score: float64(fireAt.UnixMilli()), Member: task.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("enqueue task: %w", err)
	}

	return Handle(task.ID), nil
}

func (s *RedisScheduler) Cancel(ctx context.Context, handle Handle, terminate bool) error {
	if handle == "" {
		return nil
	}

	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, dueSetKey, string(handle))
	pipe.Del(ctx, taskKeyPrefix+string(handle))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cancel task: %w", err)
	}

	// terminate cannot reach a task already claimed by a worker in
	// another process; the handler's own state guard covers that window.
	_ = terminate

	return nil
}

var claimScript = redis.NewScript(`
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, tonumber(ARGV[2]))
local bodies = {}
for _, id in ipairs(due) do
  redis.call("ZREM", KEYS[1], id)
  local key = ARGV[3] .. id
  local body = redis.call("GET", key)
  if body then
    redis.call("DEL", key)
    table.insert(bodies, body)
  end
end
return bodies
`)

// ClaimDue removes and returns up to limit tasks whose fire time has
// passed. A claimed task will never be returned again.
func (s *RedisScheduler) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Task, error) {
	res, err := claimScript.Run(ctx, s.client,
		[]string{dueSetKey},
		now.UnixMilli(), limit, taskKeyPrefix,
	).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("claim due tasks: %w", err)
	}

	tasks := make([]Task, 0, len(res))
	for _, body := range res {
		var t Task
		if err := json.Unmarshal([]byte(body), &t); err != nil {
			return nil, fmt.Errorf("decode claimed task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}
