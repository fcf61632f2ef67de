package redis

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Chat log operations

func (s *Storage) AppendChatEntry(ctx context.Context, entry *model.ChatEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, chatLogKey(), data)
	if s.cfg.MaxChatEntries > 0 {
		pipe.LTrim(ctx, chatLogKey(), -s.cfg.MaxChatEntries, -1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetChatLog(ctx context.Context, limit int) ([]*model.ChatEntry, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}

	values, err := s.client.LRange(ctx, chatLogKey(), start, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*model.ChatEntry, 0, len(values))
	for _, val := range values {
		var entry model.ChatEntry
		if err := json.Unmarshal([]byte(val), &entry); err != nil {
			continue // Skip invalid data
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

// Room snapshot operations

func (s *Storage) SaveRoomSnapshot(ctx context.Context, snap *model.RoomSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	key := roomSnapshotKey(snap.ID)

	// Save snapshot and add to the index atomically
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.cfg.RoomSnapshotTTL)
	pipe.SAdd(ctx, roomsIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoomSnapshot(ctx context.Context, id model.RoomID) (*model.RoomSnapshot, error) {
	data, err := s.client.Get(ctx, roomSnapshotKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, err
	}

	var snap model.RoomSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Storage) ListRoomSnapshots(ctx context.Context) ([]*model.RoomSnapshot, error) {
	// Get all snapshot keys from the index
	keys, err := s.client.SMembers(ctx, roomsIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*model.RoomSnapshot{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	snaps := make([]*model.RoomSnapshot, 0, len(values))
	var expired []any
	for i, val := range values {
		if val == nil {
			expired = append(expired, keys[i])
			continue
		}
		var snap model.RoomSnapshot
		if err := json.Unmarshal([]byte(val.(string)), &snap); err != nil {
			continue // Skip invalid data
		}
		snaps = append(snaps, &snap)
	}

	// Drop index entries whose snapshot has expired
	if len(expired) > 0 {
		if err := s.client.SRem(ctx, roomsIndexKey(), expired...).Err(); err != nil {
			return nil, err
		}
	}

	slices.SortFunc(snaps, func(a, b *model.RoomSnapshot) int {
		return int(a.ID) - int(b.ID)
	})
	return snaps, nil
}

func (s *Storage) DeleteRoomSnapshot(ctx context.Context, id model.RoomID) error {
	key := roomSnapshotKey(id)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, roomsIndexKey(), key)
	_, err := pipe.Exec(ctx)
	return err
}
