package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/specscan/internal/pathstore"
)

var _ Store = (*PathstoreStore)(nil)

const pathstoreRoot = "specscan/cache"

// PathstoreStore keeps one node per entry under specscan/cache/{hash}.
// Pathstore has no atomic increment, so Touch is a read-modify-write
// serialized within this process only.
type PathstoreStore struct {
	client *pathstore.Client
	mu     sync.Mutex
}

func NewPathstoreStore(client *pathstore.Client) *PathstoreStore {
	return &PathstoreStore{client: client}
}

func nodeKey(hash string) string { return pathstoreRoot + "/" + hash }

func (s *PathstoreStore) Get(ctx context.Context, hash string) (*Entry, error) {
	node, err := s.client.GetNode(ctx, nodeKey(hash))
	if err != nil {
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	if node == nil {
		return nil, ErrNotFound
	}
	return decodeEntry(node.Value)
}

func (s *PathstoreStore) put(ctx context.Context, e *Entry) error {
	return s.client.PutNode(ctx, nodeKey(e.DocumentHash), pathstore.NodeRequest{
		Value:  e,
		Source: "specscan",
	})
}

func (s *PathstoreStore) Upsert(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *e
	prev, err := s.Get(ctx, e.DocumentHash)
	switch {
	case err == nil:
		next.AccessCount = prev.AccessCount
		next.LastAccessed = prev.LastAccessed
	case !errors.Is(err, ErrNotFound):
		return err
	}
	if err := s.put(ctx, &next); err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (s *PathstoreStore) Touch(ctx context.Context, hash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.Get(ctx, hash)
	if err != nil {
		return err
	}
	e.AccessCount++
	e.LastAccessed = at
	if err := s.put(ctx, e); err != nil {
		return fmt.Errorf("touch cache entry: %w", err)
	}
	return nil
}

func (s *PathstoreStore) Delete(ctx context.Context, hash string) error {
	existed, err := s.client.DeleteNode(ctx, nodeKey(hash), false)
	if err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	if !existed {
		return ErrNotFound
	}
	return nil
}

func (s *PathstoreStore) Evict(ctx context.Context, cutoff time.Time) (int, error) {
	nodes, err := s.client.ListChildren(ctx, pathstoreRoot, 0)
	if err != nil {
		return 0, fmt.Errorf("list cache entries: %w", err)
	}
	n := 0
	for _, node := range nodes {
		var e struct {
			LastAccessed time.Time `json:"last_accessed"`
		}
		if err := json.Unmarshal(node.Value, &e); err != nil || !e.LastAccessed.Before(cutoff) {
			continue
		}
		hash := strings.TrimPrefix(node.Key, pathstoreRoot+"/")
		if existed, err := s.client.DeleteNode(ctx, nodeKey(hash), false); err != nil {
			return n, fmt.Errorf("evict %s: %w", hash, err)
		} else if existed {
			n++
		}
	}
	return n, nil
}

func (s *PathstoreStore) Close() error {
	s.client.Close()
	return nil
}
