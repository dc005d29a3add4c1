package core

import (
	"context"
	"fmt"
	"strings"
)

// Decision classifies a username against the stored and in-batch identities.
type Decision int

const (
	DecisionOK Decision = iota
	DecisionDuplicateInStore
	DecisionDuplicateInBatch
	DecisionEmptyUsername
)

func (d Decision) String() string {
	switch d {
	case DecisionOK:
		return "ok"
	case DecisionDuplicateInStore:
		return "duplicate_in_store"
	case DecisionDuplicateInBatch:
		return "duplicate_in_batch"
	case DecisionEmptyUsername:
		return "empty_username"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// IdentitySet holds lower-cased usernames. It lives for one request.
type IdentitySet map[string]struct{}

// NewIdentitySet builds a set from usernames, dropping empty ones.
func NewIdentitySet(usernames ...string) IdentitySet {
	s := make(IdentitySet, len(usernames))
	for _, u := range usernames {
		s.Add(u)
	}
	return s
}

func identityKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Add inserts username. Empty names are ignored.
func (s IdentitySet) Add(username string) {
	if key := identityKey(username); key != "" {
		s[key] = struct{}{}
	}
}

// Contains reports whether username is in the set, ignoring case.
func (s IdentitySet) Contains(username string) bool {
	_, ok := s[identityKey(username)]
	return ok
}

// LoadExisting reads every stored username in a single query.
func LoadExisting(ctx context.Context, src IdentitySource) (IdentitySet, error) {
	names, err := src.ListUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing usernames: %w", err)
	}
	return NewIdentitySet(names...), nil
}

// CheckAndReserve classifies username with precedence empty, then store,
// then batch. DecisionOK reserves the name in batch before returning, so a
// later row with the same name is a batch duplicate even if this row's
// insert fails.
func CheckAndReserve(store, batch IdentitySet, username string) Decision {
	key := identityKey(username)
	switch {
	case key == "":
		return DecisionEmptyUsername
	case store.Contains(key):
		return DecisionDuplicateInStore
	case batch.Contains(key):
		return DecisionDuplicateInBatch
	}
	batch[key] = struct{}{}
	return DecisionOK
}
