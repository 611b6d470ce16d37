package pulse

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/randalmurphal/pulse/pkg/pulse/payload"
	"github.com/randalmurphal/pulse/pkg/pulse/store"
)

// identity is the persisted user identity: anonymous id, user id and the
// cached traits sent with every identify.
type identity struct {
	mu     sync.RWMutex
	id     payload.Identity
	traits *payload.Traits

	store  store.Store
	logger *slog.Logger
}

// loadIdentity reads the identity from s, generating and saving a new
// anonymous id when none is stored.
func loadIdentity(s store.Store, logger *slog.Logger) (*identity, error) {
	i := &identity{store: s, logger: logger, traits: payload.NewValueMap()}

	if _, err := store.LoadJSON(s, store.NamespaceIdentity, store.KeyAnonymousID, &i.id.AnonymousID); err != nil {
		return nil, fmt.Errorf("load anonymous id: %w", err)
	}
	if _, err := store.LoadJSON(s, store.NamespaceIdentity, store.KeyUserID, &i.id.UserID); err != nil {
		return nil, fmt.Errorf("load user id: %w", err)
	}
	if _, err := store.LoadJSON(s, store.NamespaceIdentity, store.KeyTraits, i.traits); err != nil {
		return nil, fmt.Errorf("load traits: %w", err)
	}

	if i.id.AnonymousID == "" {
		i.id.AnonymousID = uuid.New().String()
		if err := store.SaveJSON(s, store.NamespaceIdentity, store.KeyAnonymousID, i.id.AnonymousID); err != nil {
			return nil, fmt.Errorf("save anonymous id: %w", err)
		}
	}
	return i, nil
}

// snapshot returns the current ids and a copy of the traits.
func (i *identity) snapshot() (payload.Identity, *payload.Traits) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.id, i.traits.Clone()
}

// identify merges traits into the cache and returns the merged copy that
// the identify payload carries. Nothing changes until commit is called.
func (i *identity) identify(userID string, traits *payload.Traits) (payload.Identity, *payload.Traits, func()) {
	i.mu.Lock()
	id := payload.Identity{UserID: userID, AnonymousID: i.id.AnonymousID}
	merged := i.traits.Clone().PutAll(traits)
	merged.Put(payload.TraitUserID, userID).Put(payload.TraitAnonymousID, id.AnonymousID)
	i.mu.Unlock()

	commit := func() {
		i.mu.Lock()
		i.id = id
		i.traits = merged.Clone()
		i.mu.Unlock()
		i.persist(store.KeyUserID, userID)
		i.persist(store.KeyTraits, merged)
	}
	return id, merged, commit
}

// rotate clears the user id and traits and issues a new anonymous id.
func (i *identity) rotate() payload.Identity {
	i.mu.Lock()
	i.id = payload.Identity{AnonymousID: uuid.New().String()}
	i.traits = payload.NewValueMap()
	id := i.id
	i.mu.Unlock()

	i.persist(store.KeyAnonymousID, id.AnonymousID)
	for _, key := range []string{store.KeyUserID, store.KeyTraits} {
		if err := i.store.Delete(store.NamespaceIdentity, key); err != nil {
			i.logger.Warn("failed to clear identity", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return id
}

func (i *identity) persist(key string, v any) {
	if err := store.SaveJSON(i.store, store.NamespaceIdentity, key, v); err != nil {
		i.logger.Warn("failed to persist identity", slog.String("key", key), slog.String("error", err.Error()))
	}
}
