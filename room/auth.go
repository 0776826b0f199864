package room

import (
	"sync"

	"github.com/google/uuid"
)

// HostAuthority is the room's single access-control mechanism: one bearer
// secret represents "who currently holds host control". Issuing a new
// secret invalidates the previous one, so the last issuer wins and a stale
// holder is rejected on every mutating call until it re-claims.
type HostAuthority struct {
	mutex  sync.Mutex
	secret string
}

func NewHostAuthority() *HostAuthority {
	return &HostAuthority{}
}

// Issue mints a fresh secret, invalidating any previously issued one.
func (a *HostAuthority) Issue() string {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.secret = uuid.New().String()
	return a.secret
}

// Validate reports whether the presented secret is the currently valid one.
// An empty secret never validates, even before the first Issue.
func (a *HostAuthority) Validate(secret string) bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return secret != "" && secret == a.secret
}

func newTeamID() string {
	return uuid.New().String()
}
