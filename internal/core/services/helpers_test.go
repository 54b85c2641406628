package services_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

func ptr[T any](v T) *T {
	return &v
}

var errStoreDown = errors.New("store unavailable")

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, time.May, 7, 18, 45, 0, 0, time.Local)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(days int) { c.now = c.now.AddDate(0, 0, days) }

type MockStore struct {
	data map[string]string

	// failSet makes Set fail for keys it matches.
	failSet    func(key string) bool
	failRemove func(key string) bool
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]string)}
}

func (m *MockStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return v, nil
}

func (m *MockStore) Set(ctx context.Context, key, value string) error {
	if m.failSet != nil && m.failSet(key) {
		return errStoreDown
	}
	m.data[key] = value
	return nil
}

func (m *MockStore) Remove(ctx context.Context, key string) error {
	if m.failRemove != nil && m.failRemove(key) {
		return errStoreDown
	}
	delete(m.data, key)
	return nil
}

func (m *MockStore) Keys() []string {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MockStore) ProgressKeys() []string {
	var keys []string
	for _, k := range m.Keys() {
		if strings.Contains(k, "habit-") {
			keys = append(keys, k)
		}
	}
	return keys
}

func keyIs(want string) func(string) bool {
	return func(key string) bool { return key == want }
}

type StubStore struct {
	mock.Mock
}

func (s *StubStore) Get(ctx context.Context, key string) (string, error) {
	args := s.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (s *StubStore) Set(ctx context.Context, key, value string) error {
	return s.Called(ctx, key, value).Error(0)
}

func (s *StubStore) Remove(ctx context.Context, key string) error {
	return s.Called(ctx, key).Error(0)
}
