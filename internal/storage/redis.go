package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dyluth/drey/pkg/store"
)

// Redis key layout, namespaced by profile so independent task collections
// can coexist on one server:
//
//	drey:{profile}:board:{board_id}  - board hash
//	drey:{profile}:boards            - list of board IDs in display order
//	drey:{profile}:meta              - hash: current_board_id, filter, saved_at
//	drey:{profile}:state_events      - pub/sub channel, full snapshot JSON per save

func boardKey(profile, boardID string) string {
	return fmt.Sprintf("drey:%s:board:%s", profile, boardID)
}

func boardIndexKey(profile string) string {
	return fmt.Sprintf("drey:%s:boards", profile)
}

func metaKey(profile string) string {
	return fmt.Sprintf("drey:%s:meta", profile)
}

// StateEventsChannel returns the pub/sub channel that receives the full
// snapshot JSON after every save.
func StateEventsChannel(profile string) string {
	return fmt.Sprintf("drey:%s:state_events", profile)
}

// RedisAdapter persists snapshots to Redis, one hash per board plus an
// ordered index and a meta hash. After every save the full snapshot is
// published on the profile's state events channel for external watchers.
type RedisAdapter struct {
	rdb     *redis.Client
	profile string
}

// NewRedisAdapter creates an adapter scoped to the given profile.
// Returns an error if profile is empty.
func NewRedisAdapter(redisOpts *redis.Options, profile string) (*RedisAdapter, error) {
	if profile == "" {
		return nil, fmt.Errorf("profile cannot be empty")
	}

	return &RedisAdapter{
		rdb:     redis.NewClient(redisOpts),
		profile: profile,
	}, nil
}

// Ping verifies Redis connectivity. Useful for health checks.
func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection. Implements io.Closer.
func (r *RedisAdapter) Close() error {
	return r.rdb.Close()
}

// Load rebuilds a snapshot from the board index and meta hash.
// Returns ErrNotFound when nothing has been saved under this profile.
func (r *RedisAdapter) Load(ctx context.Context) (*Snapshot, error) {
	exists, err := r.rdb.Exists(ctx, metaKey(r.profile)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check for stored state: %w", err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	ids, err := r.rdb.LRange(ctx, boardIndexKey(r.profile), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read board index: %w", err)
	}

	boards := make([]store.Board, 0, len(ids))
	for _, id := range ids {
		hash, err := r.rdb.HGetAll(ctx, boardKey(r.profile, id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read board %s: %w", id, err)
		}
		if len(hash) == 0 {
			// Index entry without a hash: skip rather than fail the load.
			continue
		}
		board, err := HashToBoard(hash)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize board %s: %w", id, err)
		}
		boards = append(boards, *board)
	}

	meta, err := r.rdb.HGetAll(ctx, metaKey(r.profile)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read meta: %w", err)
	}

	return &Snapshot{
		Boards:         boards,
		CurrentBoardID: meta["current_board_id"],
		Filter:         meta["filter"],
	}, nil
}

// Save replaces the persisted snapshot: stale board hashes are removed, the
// index is rewritten in order, and the full snapshot JSON is published.
func (r *RedisAdapter) Save(ctx context.Context, snap *Snapshot) error {
	// Remove hashes for boards that no longer exist.
	existing, err := r.rdb.LRange(ctx, boardIndexKey(r.profile), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read board index: %w", err)
	}
	keep := make(map[string]bool, len(snap.Boards))
	for _, b := range snap.Boards {
		keep[b.ID] = true
	}
	for _, id := range existing {
		if !keep[id] {
			if err := r.rdb.Del(ctx, boardKey(r.profile, id)).Err(); err != nil {
				return fmt.Errorf("failed to delete stale board %s: %w", id, err)
			}
		}
	}

	// Write every board hash and rebuild the ordered index.
	if err := r.rdb.Del(ctx, boardIndexKey(r.profile)).Err(); err != nil {
		return fmt.Errorf("failed to clear board index: %w", err)
	}
	for i := range snap.Boards {
		hash, err := BoardToHash(&snap.Boards[i])
		if err != nil {
			return fmt.Errorf("failed to serialize board %s: %w", snap.Boards[i].ID, err)
		}
		if err := r.rdb.HSet(ctx, boardKey(r.profile, snap.Boards[i].ID), hash).Err(); err != nil {
			return fmt.Errorf("failed to write board %s: %w", snap.Boards[i].ID, err)
		}
		if err := r.rdb.RPush(ctx, boardIndexKey(r.profile), snap.Boards[i].ID).Err(); err != nil {
			return fmt.Errorf("failed to index board %s: %w", snap.Boards[i].ID, err)
		}
	}

	meta := map[string]interface{}{
		"current_board_id": snap.CurrentBoardID,
		"filter":           snap.Filter,
		"saved_at":         time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := r.rdb.HSet(ctx, metaKey(r.profile), meta).Err(); err != nil {
		return fmt.Errorf("failed to write meta: %w", err)
	}

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for event: %w", err)
	}
	if err := r.rdb.Publish(ctx, StateEventsChannel(r.profile), snapJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish state event: %w", err)
	}

	return nil
}
