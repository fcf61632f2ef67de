package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/roomserver/internal/api/response"
	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/services/registry"
	"github.com/mcoot/roomserver/internal/services/room"
	"github.com/mcoot/roomserver/internal/storage"
)

// DefaultChatLogLimit applies when no limit is given
const DefaultChatLogLimit = 50

// MaxChatLogLimit bounds a single chat log request
const MaxChatLogLimit = 1000

// StatusHandler serves read-only views of the server's state
type StatusHandler struct {
	registry *registry.Registry
	rooms    *room.Manager
	storage  storage.Storage
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(registry *registry.Registry, rooms *room.Manager, storage storage.Storage) *StatusHandler {
	return &StatusHandler{
		registry: registry,
		rooms:    rooms,
		storage:  storage,
	}
}

// Health handles GET /api/v1/health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	snaps := h.rooms.Snapshots()
	inProgress := 0
	for _, s := range snaps {
		if s.State == model.RoomStateInProgress {
			inProgress++
		}
	}

	response.JSON(w, http.StatusOK, response.Health{
		Status:          "ok",
		Clients:         h.registry.Len(),
		Rooms:           len(snaps),
		RoomsInProgress: inProgress,
	})
}

// Roster handles GET /api/v1/roster
func (h *StatusHandler) Roster(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.RosterFromRegistry(h.registry.Clients()))
}

// ListRooms handles GET /api/v1/rooms
func (h *StatusHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.storage.ListRoomSnapshots(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	rooms := make([]response.Room, len(snaps))
	for i, s := range snaps {
		rooms[i] = response.RoomFromModel(s)
	}
	response.JSON(w, http.StatusOK, response.RoomList{Rooms: rooms})
}

// GetRoom handles GET /api/v1/rooms/{id}
func (h *StatusHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil || id < 1 {
		WriteError(w, NewInvalidRequestError("room id must be a positive integer"))
		return
	}

	snap, err := h.storage.GetRoomSnapshot(r.Context(), model.RoomID(id))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomFromModel(snap))
}

// ChatLog handles GET /api/v1/chatlog?limit=N
func (h *StatusHandler) ChatLog(w http.ResponseWriter, r *http.Request) {
	limit := DefaultChatLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > MaxChatLogLimit {
			WriteError(w, NewInvalidRequestError("limit must be between 1 and "+strconv.Itoa(MaxChatLogLimit)))
			return
		}
		limit = parsed
	}

	entries, err := h.storage.GetChatLog(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	result := make([]response.ChatEntry, len(entries))
	for i, e := range entries {
		result[i] = response.ChatEntryFromModel(e)
	}
	response.JSON(w, http.StatusOK, response.ChatLog{Entries: result})
}
