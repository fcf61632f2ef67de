package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/storage"
)

// Config holds journal settings
type Config struct {
	// BufferSize is the number of pending records held before new ones are dropped
	BufferSize int
	// WriteTimeout bounds each storage write
	WriteTimeout time.Duration
}

// DefaultConfig returns the default journal settings
func DefaultConfig() Config {
	return Config{
		BufferSize:   256,
		WriteTimeout: 2 * time.Second,
	}
}

type recordKind int

const (
	recordChat recordKind = iota
	recordRoom
	recordRoomRemoved
)

type record struct {
	kind   recordKind
	chat   model.ChatEntry
	room   model.RoomSnapshot
	roomID model.RoomID
}

// Journal persists chat entries and room snapshots off the dispatch path.
// Record methods never block. When the buffer is full chat entries and
// snapshots are dropped and logged; removals are deferred until the buffer
// has drained, so a removed room never lingers in storage.
type Journal struct {
	cfg     Config
	storage storage.Storage
	logger  *slog.Logger
	records chan record
	done    chan struct{}

	mu       sync.Mutex
	deferred []model.RoomID
	// signalled when a removal is deferred
	wake chan struct{}
}

// New creates a journal writing to the given storage
func New(cfg Config, storage storage.Storage, logger *slog.Logger) *Journal {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Journal{
		cfg:     cfg,
		storage: storage,
		logger:  logger.With(slog.String("component", "journal")),
		records: make(chan record, cfg.BufferSize),
		done:    make(chan struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// RecordChat queues a chat entry
func (j *Journal) RecordChat(entry model.ChatEntry) {
	j.enqueue(record{kind: recordChat, chat: entry})
}

// RecordRoom queues a room snapshot
func (j *Journal) RecordRoom(snap model.RoomSnapshot) {
	j.enqueue(record{kind: recordRoom, room: snap})
}

// RecordRoomRemoved queues deletion of a room's snapshot
func (j *Journal) RecordRoomRemoved(id model.RoomID) {
	j.enqueue(record{kind: recordRoomRemoved, roomID: id})
}

func (j *Journal) enqueue(r record) {
	select {
	case j.records <- r:
		return
	default:
	}

	if r.kind == recordRoomRemoved {
		j.mu.Lock()
		j.deferred = append(j.deferred, r.roomID)
		j.mu.Unlock()
		select {
		case j.wake <- struct{}{}:
		default:
		}
		j.logger.Warn("journal buffer full - room removal deferred", slog.Int("room_id", int(r.roomID)))
		return
	}
	j.logger.Warn("journal record dropped - buffer full", slog.Int("kind", int(r.kind)))
}

// Run writes queued records until ctx is cancelled, then flushes whatever
// is still buffered and returns.
func (j *Journal) Run(ctx context.Context) {
	defer close(j.done)
	j.logger.Info("journal started")

	for {
		select {
		case r := <-j.records:
			j.write(r)
			continue
		default:
		}

		// The buffer is empty, so every record queued ahead of a deferred
		// removal has been written
		j.writeDeferred()

		select {
		case r := <-j.records:
			j.write(r)
		case <-j.wake:
		case <-ctx.Done():
			flushed := 0
			for {
				select {
				case r := <-j.records:
					j.write(r)
					flushed++
					continue
				default:
				}
				flushed += j.writeDeferred()
				j.logger.Info("journal stopped", slog.Int("flushed", flushed))
				return
			}
		}
	}
}

func (j *Journal) writeDeferred() int {
	j.mu.Lock()
	ids := j.deferred
	j.deferred = nil
	j.mu.Unlock()

	for _, id := range ids {
		j.write(record{kind: recordRoomRemoved, roomID: id})
	}
	return len(ids)
}

// Done is closed once Run has returned
func (j *Journal) Done() <-chan struct{} {
	return j.done
}

func (j *Journal) write(r record) {
	ctx, cancel := context.WithTimeout(context.Background(), j.cfg.WriteTimeout)
	defer cancel()

	var err error
	switch r.kind {
	case recordChat:
		err = j.storage.AppendChatEntry(ctx, &r.chat)
	case recordRoom:
		err = j.storage.SaveRoomSnapshot(ctx, &r.room)
	case recordRoomRemoved:
		err = j.storage.DeleteRoomSnapshot(ctx, r.roomID)
	}
	if err != nil {
		j.logger.Error("journal write failed",
			slog.Int("kind", int(r.kind)),
			slog.String("error", err.Error()))
	}
}
