package minigame

import (
	"sync"
)

// Descriptor is the capability metadata the registry keeps per minigame type.
type Descriptor struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Supported bool   `json:"supported"`
}

// Registry maps a minigame type tag to its plugin. Callers never hard-code
// plugin identity; unknown types resolve to the unsupported fallback.
type Registry struct {
	mutex   sync.RWMutex
	plugins map[string]Plugin
	names   map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		names:   make(map[string]string),
	}
}

// Register adds a plugin under its own type tag.
func (r *Registry) Register(p Plugin, displayName string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.plugins[p.Type()] = p
	r.names[p.Type()] = displayName
}

// Resolve returns the plugin for a minigame type, falling back to the
// unsupported plugin so callers always get a working implementation.
func (r *Registry) Resolve(minigameType string) Plugin {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if p, ok := r.plugins[minigameType]; ok {
		return p
	}
	return newUnsupported(minigameType)
}

// Describe reports the capability metadata for a minigame type.
func (r *Registry) Describe(minigameType string) Descriptor {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if _, ok := r.plugins[minigameType]; ok {
		return Descriptor{Type: minigameType, Name: r.names[minigameType], Supported: true}
	}
	return Descriptor{Type: minigameType, Name: minigameType, Supported: false}
}
