package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/pricelens/scraper/internal/domain"
)

// Store persists scrape output as pretty-printed JSON files. Writes merge
// into whatever the files already hold, so repeated runs update rows in
// place instead of duplicating them.
type Store struct {
	mu              sync.Mutex
	productsPath    string
	comparisonsPath string
}

// NewStore creates a store writing listings and comparison records to the
// given paths.
func NewStore(productsPath, comparisonsPath string) *Store {
	return &Store{
		productsPath:    productsPath,
		comparisonsPath: comparisonsPath,
	}
}

// SaveProducts merges products into the listings file by SKU. The write runs
// to completion even when ctx is already cancelled, so an interrupted run
// keeps what it collected.
func (s *Store) SaveProducts(ctx context.Context, products []domain.ListedProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := loadSlice[domain.ListedProduct](s.productsPath)
	if err != nil {
		return err
	}
	merged := mergeByKey(existing, products, func(p domain.ListedProduct) string { return p.SKU })
	if err := writeAtomic(s.productsPath, merged); err != nil {
		return err
	}
	log.Printf("[STORE] Saved %d product listings to %s (%d incoming)", len(merged), s.productsPath, len(products))
	return nil
}

// SaveComparisons merges comparison records into the comparison file by SKU.
func (s *Store) SaveComparisons(ctx context.Context, records []domain.ComparisonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := loadSlice[domain.ComparisonRecord](s.comparisonsPath)
	if err != nil {
		return err
	}
	merged := mergeByKey(existing, records, func(r domain.ComparisonRecord) string { return r.SKU })
	if err := writeAtomic(s.comparisonsPath, merged); err != nil {
		return err
	}
	log.Printf("[STORE] Saved %d comparison records to %s (%d incoming)", len(merged), s.comparisonsPath, len(records))
	return nil
}

// loadSlice reads the JSON array at path. A missing file is an empty store;
// a file that no longer parses is moved aside with a backup_ prefix and
// treated as empty so one bad write never wedges future runs.
func loadSlice[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		backup := quarantine(path)
		log.Printf("[STORE] %s is not valid JSON, moved to %s: %v", path, backup, err)
		return nil, nil
	}
	return items, nil
}

func quarantine(path string) string {
	backup := filepath.Join(filepath.Dir(path), "backup_"+filepath.Base(path))
	if err := os.Rename(path, backup); err != nil {
		log.Printf("[STORE] Quarantining %s: %v", path, err)
	}
	return backup
}

// mergeByKey overlays incoming onto existing. Replaced rows keep their
// position, new rows append in incoming order, and the last occurrence of a
// key inside one batch wins.
func mergeByKey[T any](existing, incoming []T, key func(T) string) []T {
	merged := make([]T, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(existing))
	for i, item := range existing {
		index[key(item)] = i
	}
	for _, item := range incoming {
		if i, ok := index[key(item)]; ok {
			merged[i] = item
			continue
		}
		index[key(item)] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// writeAtomic replaces path in one rename so readers never observe a partial
// file.
func writeAtomic[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
