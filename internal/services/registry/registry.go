package registry

import (
	"iter"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mcoot/roomserver/internal/dependencies/clock"
	"github.com/mcoot/roomserver/internal/model"
)

// Client is a registry entry: the identity plus the room it is in
type Client struct {
	model.ClientIdentity
	// RoomID is zero when the client is not in a room
	RoomID model.RoomID
}

// Registry tracks logged-in clients in join order.
// Display names are unique among registered clients.
type Registry struct {
	mu      sync.RWMutex
	clock   clock.Clock
	clients map[model.ConnectionHandle]*Client
	byName  map[string]model.ConnectionHandle
	order   []model.ConnectionHandle
}

// New creates an empty registry
func New(clock clock.Clock) *Registry {
	return &Registry{
		clock:   clock,
		clients: make(map[model.ConnectionHandle]*Client),
		byName:  make(map[string]model.ConnectionHandle),
	}
}

// ValidateName checks a display name without registering it
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return model.ErrInvalidName
	}
	if utf8.RuneCountInString(name) > model.MaxDisplayNameLength || !utf8.ValidString(name) {
		return model.ErrInvalidName
	}
	return nil
}

// Register binds a display name to the connection
func (r *Registry) Register(handle model.ConnectionHandle, name string) (model.ClientIdentity, error) {
	if err := ValidateName(name); err != nil {
		return model.ClientIdentity{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[handle]; ok {
		return model.ClientIdentity{}, model.ErrAlreadyRegistered
	}
	if _, ok := r.byName[name]; ok {
		return model.ClientIdentity{}, model.ErrDuplicateName
	}

	client := &Client{
		ClientIdentity: model.ClientIdentity{
			Handle:      handle,
			DisplayName: name,
			JoinedAt:    r.clock.Now(),
		},
	}
	r.clients[handle] = client
	r.byName[name] = handle
	r.order = append(r.order, handle)

	return client.ClientIdentity, nil
}

// Unregister removes the connection's identity and frees its name
func (r *Registry) Unregister(handle model.ConnectionHandle) (Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[handle]
	if !ok {
		return Client{}, model.ErrClientNotFound
	}

	delete(r.clients, handle)
	delete(r.byName, client.DisplayName)
	if i := slices.Index(r.order, handle); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return *client, nil
}

// Find returns the client registered under the display name
func (r *Registry) Find(name string) (model.ClientIdentity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.byName[name]
	if !ok {
		return model.ClientIdentity{}, false
	}
	return r.clients[handle].ClientIdentity, true
}

// Lookup returns the registry entry for a connection
func (r *Registry) Lookup(handle model.ConnectionHandle) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[handle]
	if !ok {
		return Client{}, false
	}
	return *client, true
}

// SetRoom records the room the client is in; zero clears it
func (r *Registry) SetRoom(handle model.ConnectionHandle, roomID model.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[handle]
	if !ok {
		return model.ErrClientNotFound
	}
	client.RoomID = roomID
	return nil
}

// Len returns the number of registered clients
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Clients returns a snapshot of every entry in join order
func (r *Registry) Clients() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Client, 0, len(r.order))
	for _, handle := range r.order {
		result = append(result, *r.clients[handle])
	}
	return result
}

// Roster yields display names in join order. The names are captured when
// Roster is called, so the sequence can be ranged over more than once and
// is unaffected by later registrations.
func (r *Registry) Roster() iter.Seq[string] {
	r.mu.RLock()
	names := make([]string, 0, len(r.order))
	for _, handle := range r.order {
		names = append(names, r.clients[handle].DisplayName)
	}
	r.mu.RUnlock()

	return slices.Values(names)
}
