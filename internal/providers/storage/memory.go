package storage

import (
	"context"
	"sync"
)

// Memory keeps account data in process memory
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Load(_ context.Context, account string) (string, error) {
	if err := ValidateAccount(account); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[account], nil
}

func (m *Memory) Save(_ context.Context, account, data string) error {
	if err := ValidateAccount(account); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[account] = data
	return nil
}

func (m *Memory) Delete(_ context.Context, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, account)
	return nil
}

func (m *Memory) Close() error { return nil }
