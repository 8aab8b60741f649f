package queue

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue implements Queue on top of Redis sorted sets: score is the unix-milli visibility
// time, so ZRANGEBYSCORE with an upper bound of "now" yields exactly the ready items, and a pop
// re-scores an item into a separate unacked set keyed by a visibility-timeout deadline.
type RedisQueue struct {
	client            *redis.Client
	visibilityTimeout time.Duration
	Now               func() time.Time
}

// NewRedisQueue builds a RedisQueue over an existing client. visibilityTimeout sets the deadline
// score a popped item is given in the unacked set. Nothing moves an unacked item back to the
// visible set when that deadline passes; it stays unacked until Ack or Remove.
func NewRedisQueue(client *redis.Client, visibilityTimeout time.Duration) *RedisQueue {
	return &RedisQueue{client: client, visibilityTimeout: visibilityTimeout, Now: time.Now}
}

func visibleKey(queueName string) string { return "queue:{" + queueName + "}:visible" }
func unackedKey(queueName string) string { return "queue:{" + queueName + "}:unacked" }

func (q *RedisQueue) Push(ctx context.Context, queueName, id string, delaySec int) error {
	score := float64(q.Now().Add(time.Duration(delaySec) * time.Second).UnixMilli())
	return q.client.ZAdd(ctx, visibleKey(queueName), redis.Z{Score: score, Member: id}).Err()
}

func (q *RedisQueue) PushIfNotExists(ctx context.Context, queueName, id string, delaySec int) (bool, error) {
	score := float64(q.Now().Add(time.Duration(delaySec) * time.Second).UnixMilli())
	added, err := q.client.ZAddNX(ctx, visibleKey(queueName), redis.Z{Score: score, Member: id}).Result()
	if err != nil {
		return false, err
	}
	return added > 0, nil
}

// Pop polls in short increments up to timeoutMs. Each increment reads ready ids with ZRANGEBYSCORE
// and then claims them one by one with ZREM; an id that another consumer removed first is dropped
// from the result, so two concurrent pollers never both receive the same id.
func (q *RedisQueue) Pop(ctx context.Context, queueName string, count int, timeoutMs int) ([]string, error) {
	deadline := q.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	const pollInterval = 20 * time.Millisecond

	for {
		ids, err := q.popReady(ctx, queueName, count)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 || q.Now().After(deadline) {
			return ids, nil
		}
		select {
		case <-ctx.Done():
			return ids, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (q *RedisQueue) popReady(ctx context.Context, queueName string, count int) ([]string, error) {
	now := q.Now()
	ids, err := q.client.ZRangeByScore(ctx, visibleKey(queueName), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   formatScore(now.UnixMilli()),
		Count: int64(count),
	}).Result()
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	claimed := make([]string, 0, len(ids))
	for _, id := range ids {
		removed, err := q.client.ZRem(ctx, visibleKey(queueName), id).Result()
		if err != nil {
			return nil, err
		}
		if removed > 0 {
			claimed = append(claimed, id)
		}
	}
	if len(claimed) == 0 {
		return nil, nil
	}
	ids = claimed

	deadline := float64(now.Add(q.visibilityTimeout).UnixMilli())
	members := make([]redis.Z, len(ids))
	for i, id := range ids {
		members[i] = redis.Z{Score: deadline, Member: id}
	}
	if err := q.client.ZAdd(ctx, unackedKey(queueName), members...).Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (q *RedisQueue) Ack(ctx context.Context, queueName, id string) (bool, error) {
	removed, err := q.client.ZRem(ctx, unackedKey(queueName), id).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (q *RedisQueue) Remove(ctx context.Context, queueName, id string) error {
	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, visibleKey(queueName), id)
	pipe.ZRem(ctx, unackedKey(queueName), id)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *RedisQueue) Exists(queueName, id string) bool {
	ctx := context.Background()
	if _, err := q.client.ZScore(ctx, visibleKey(queueName), id).Result(); err == nil {
		return true
	}
	if _, err := q.client.ZScore(ctx, unackedKey(queueName), id).Result(); err == nil {
		return true
	}
	return false
}

func (q *RedisQueue) GetSize(queueName string) (int, error) {
	ctx := context.Background()
	visible, err := q.client.ZCard(ctx, visibleKey(queueName)).Result()
	if err != nil {
		return 0, err
	}
	unacked, err := q.client.ZCard(ctx, unackedKey(queueName)).Result()
	if err != nil {
		return 0, err
	}
	return int(visible + unacked), nil
}

func (q *RedisQueue) QueuesDetail() (map[string]int, error) {
	ctx := context.Background()
	keys, err := q.client.Keys(ctx, "queue:{*}:visible").Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(keys))
	for _, key := range keys {
		name := queueNameFromVisibleKey(key)
		size, err := q.GetSize(name)
		if err != nil {
			return nil, err
		}
		out[name] = size
	}
	return out, nil
}

func formatScore(ms int64) string {
	return strconv.FormatInt(ms, 10)
}

func toInterfaceSlice(ids []string) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func queueNameFromVisibleKey(key string) string {
	// "queue:{name}:visible" -> "name"
	const prefix = "queue:{"
	const suffix = "}:visible"
	if len(key) < len(prefix)+len(suffix) {
		return key
	}
	return key[len(prefix) : len(key)-len(suffix)]
}
