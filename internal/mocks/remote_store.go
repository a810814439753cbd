// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zhangshi0512/FactsHub/application/ports"
)

// MockRemoteStore is a mock implementation of ports.RemoteStore.
type MockRemoteStore struct {
	mock.Mock
}

var _ ports.RemoteStore = (*MockRemoteStore)(nil)

func (m *MockRemoteStore) Query(ctx context.Context, table string, q ports.Query) ([]ports.Row, error) {
	args := m.Called(ctx, table, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.Row), args.Error(1)
}

func (m *MockRemoteStore) Insert(ctx context.Context, table string, rows []ports.Row) ([]ports.Row, error) {
	args := m.Called(ctx, table, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.Row), args.Error(1)
}

func (m *MockRemoteStore) Update(ctx context.Context, table string, patch ports.Row, match ports.Filter) ([]ports.Row, error) {
	args := m.Called(ctx, table, patch, match)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.Row), args.Error(1)
}

func (m *MockRemoteStore) Delete(ctx context.Context, table string, match ports.Filter) error {
	args := m.Called(ctx, table, match)
	return args.Error(0)
}
