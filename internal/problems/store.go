// Package problems loads the bundled problem dataset and picks random
// problems for rooms.
package problems

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"leetrace/internal/domain"
)

// Meta is one entry of the problem index
type Meta struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags,omitempty"`
}

// Problems whose test harness needs structures the frontend cannot render
// a starter for are excluded from random selection.
var excludedTags = map[string]bool{
	"Tree":               true,
	"Binary Tree":        true,
	"Binary Search Tree": true,
	"Linked List":        true,
}

// Store reads problems from a directory containing index.json plus one
// <id>.json file per problem. The index is cached on first load.
type Store struct {
	dir string

	mu     sync.Mutex
	index  []Meta
	loaded bool
}

// NewStore creates a problem store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Index returns the problem metadata list, caching on first load.
// A missing index file yields an empty list, not an error.
func (s *Store) Index() []Meta {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.index
	}

	s.loaded = true
	data, err := os.ReadFile(filepath.Join(s.dir, "index.json"))
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &s.index); err != nil {
		s.index = nil
	}
	return s.index
}

// Load returns full problem data for a given id
func (s *Store) Load(id string) (*domain.Problem, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("load problem %s: %w", id, err)
	}

	var problem domain.Problem
	if err := json.Unmarshal(data, &problem); err != nil {
		return nil, fmt.Errorf("parse problem %s: %w", id, err)
	}
	return &problem, nil
}

// PickRandom picks a random problem, optionally filtered by difficulty.
// Returns nil when no problem matches.
func (s *Store) PickRandom(difficulty string) *domain.Problem {
	index := s.Index()
	if len(index) == 0 {
		return nil
	}

	filtered := make([]Meta, 0, len(index))
	for _, meta := range index {
		if hasExcludedTag(meta.Tags) {
			continue
		}
		if difficulty != "" && !strings.EqualFold(meta.Difficulty, difficulty) {
			continue
		}
		filtered = append(filtered, meta)
	}
	if len(filtered) == 0 {
		return nil
	}

	choice := filtered[rand.IntN(len(filtered))]
	problem, err := s.Load(choice.ID)
	if err != nil {
		return nil
	}
	return problem
}

func hasExcludedTag(tags []string) bool {
	for _, tag := range tags {
		if excludedTags[tag] {
			return true
		}
	}
	return false
}
