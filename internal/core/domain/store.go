package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrKeyNotFound = errors.New("key not found")
)

const (
	UserDetailsKey = "userDetails"
	UserHabitsKey  = "userHabits"
	BasicHabitsKey = "basicHabits"

	progressLogPrefix = "habit-"
)

// progressLogSpace scopes the name-derived identifiers of progress logs.
var progressLogSpace = uuid.MustParse("6f1c2a4e-3b7d-4c55-9a0e-8d2f61b0c7aa")

type KeyValueStore interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value atomically.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// NamespacedKey scopes key to a user namespace. The empty namespace keeps the
// bare key.
func NamespacedKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}

// ProgressLogKey derives the storage key of a habit's progress log from the
// normalized habit name, so that names equal under NormalizeName share a log
// and arbitrary characters in a name never leak into the key space.
func ProgressLogKey(namespace, habitName string) string {
	id := uuid.NewSHA1(progressLogSpace, []byte(NormalizeName(habitName)))
	return NamespacedKey(namespace, progressLogPrefix+id.String())
}
