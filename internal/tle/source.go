package tle

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// CachedSource resolves catalog numbers to element sets, consulting an
// in-memory memo and the disk cache before going to the network. Cached data
// older than maxAge is refetched. Safe for concurrent use.
type CachedSource struct {
	client *Client
	cache  *Cache
	maxAge time.Duration
	logger *slog.Logger

	mu   sync.Mutex
	memo map[int]memoEntry
}

type memoEntry struct {
	es        *ElementSet
	fetchedAt time.Time
}

// NewCachedSource wires a fetch client to a disk cache. maxAge <= 0 selects a
// 6 hour default, matching how often CelesTrak refreshes GP data.
func NewCachedSource(client *Client, cache *Cache, maxAge time.Duration, logger *slog.Logger) *CachedSource {
	if maxAge <= 0 {
		maxAge = 6 * time.Hour
	}
	return &CachedSource{
		client: client,
		cache:  cache,
		maxAge: maxAge,
		logger: logger,
		memo:   make(map[int]memoEntry),
	}
}

// ElementSet returns the element set for a catalog number. Fetch failures are
// not retried and never fall back to stale cached data.
func (s *CachedSource) ElementSet(ctx context.Context, catalogNumber int) (*ElementSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if m, ok := s.memo[catalogNumber]; ok && now.Sub(m.fetchedAt) < s.maxAge {
		return m.es, nil
	}

	if s.cache != nil {
		if data, ts, err := s.cache.LoadLatest(catalogNumber); err == nil && now.Sub(ts) < s.maxAge {
			es, err := selectElementSet(data, catalogNumber, s.logger)
			if err == nil {
				s.logger.Debug("element set loaded from cache",
					"catalog_number", catalogNumber,
					"cached_at", ts.UTC().Format(time.RFC3339),
				)
				s.memo[catalogNumber] = memoEntry{es: es, fetchedAt: ts}
				return es, nil
			}
			s.logger.Warn("discarding unparseable cached element set",
				"catalog_number", catalogNumber, "error", err)
		}
	}

	data, err := s.client.FetchRaw(ctx, catalogNumber)
	if err != nil {
		return nil, err
	}
	es, err := selectElementSet(data, catalogNumber, s.logger)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Write(catalogNumber, data, now); err != nil {
			s.logger.Warn("failed to write element set cache",
				"catalog_number", catalogNumber, "error", err)
		}
	}

	s.logger.Info("element set fetched",
		"catalog_number", catalogNumber,
		"name", es.Name,
		"epoch", es.Epoch.UTC().Format(time.RFC3339),
	)
	s.memo[catalogNumber] = memoEntry{es: es, fetchedAt: now}
	return es, nil
}

// FileSource reads element sets from a local TLE file, for offline use.
type FileSource struct {
	Path   string
	Logger *slog.Logger
}

// ElementSet returns the entry matching the catalog number, or the first
// entry in the file when catalogNumber <= 0.
func (s *FileSource) ElementSet(_ context.Context, catalogNumber int) (*ElementSet, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading TLE file: %w", err)
	}

	sets, err := Parse(bytes.NewReader(data), s.Logger)
	if err != nil {
		return nil, fmt.Errorf("parsing TLE file %s: %w", s.Path, err)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("no TLE entries in %s", s.Path)
	}

	if catalogNumber <= 0 {
		return &sets[0], nil
	}
	for i := range sets {
		if sets[i].CatalogNumber == catalogNumber {
			return &sets[i], nil
		}
	}
	return nil, fmt.Errorf("catalog number %d not in %s: %w", catalogNumber, s.Path, ErrNotFound)
}
