package services

import (
	"context"
	"fmt"
	"sync"

	"realestate-summary/models"
	"realestate-summary/storage"
)

// memStore is an in-memory TableStore with failure injection.
type memStore struct {
	mu       sync.Mutex
	tables   map[string]*models.Table
	loadErrs map[string]error
	saveErr  error
	opens    int
	closes   int
}

func newMemStore() *memStore {
	return &memStore{tables: map[string]*models.Table{}, loadErrs: map[string]error{}}
}

func (m *memStore) opener() storage.Opener {
	return func(ctx context.Context) (storage.TableStore, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.opens++
		return &memSession{m: m}, nil
	}
}

type memSession struct {
	m *memStore
}

func (s *memSession) LoadTable(ctx context.Context, name string) (*models.Table, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.loadErrs[name]; err != nil {
		return nil, err
	}
	t, ok := s.m.tables[name]
	if !ok {
		return nil, fmt.Errorf("mem: load %q: %w", name, storage.ErrTableNotFound)
	}
	return t.Clone(), nil
}

func (s *memSession) SaveTable(ctx context.Context, name string, t *models.Table) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.saveErr != nil {
		return s.m.saveErr
	}
	s.m.tables[name] = t.Clone()
	return nil
}

func (s *memSession) Close() error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.closes++
	return nil
}
