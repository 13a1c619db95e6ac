package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrItemNotFound  = errors.New("item not found in group")
	ErrDuplicateItem = errors.New("item already present in group")
)

type storedGroup struct {
	Name  string        `json:"name"`
	Items []domain.Item `json:"items"`
}

// Store is the persistent mapping from identity-group id to member items.
// It is the single source of truth for item identity. The whole store is
// rewritten on every mutation; a failed write is returned to the caller but
// the in-memory mutation is kept (at-least-once durability, no rollback).
// Not safe for concurrent writers.
type Store struct {
	path   string
	groups map[string]*storedGroup
}

// Open loads the store from path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		groups: make(map[string]*storedGroup),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", path).Msg("mapping file not found, starting with empty store")
			return s, nil
		}
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s.groups); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("groups", len(s.groups)).Msg("mapping store loaded")
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of groups.
func (s *Store) Len() int {
	return len(s.groups)
}

// AddMember adds an (name, code) pair to a group, creating the group when it
// does not exist yet. An empty code is substituted with the name so every
// member carries a non-empty identity key. Returns ErrDuplicateItem when the
// exact pair is already present in the group.
func (s *Store) AddMember(groupID, name, code string) error {
	if strings.TrimSpace(code) == "" {
		code = name
	}
	item := domain.Item{Name: name, Code: code}

	group, ok := s.groups[groupID]
	if !ok {
		s.groups[groupID] = &storedGroup{
			Name:  fmt.Sprintf("Группа %d", len(s.groups)+1),
			Items: []domain.Item{item},
		}
		return s.persist()
	}

	for _, existing := range group.Items {
		if existing == item {
			log.Warn().Str("group", groupID).Str("name", name).Str("code", code).
				Msg("item already present in group")
			return ErrDuplicateItem
		}
	}

	group.Items = append(group.Items, item)
	return s.persist()
}

// RemoveMember removes an exact (name, code) pair from a group. The group is
// deleted when its last member is removed.
func (s *Store) RemoveMember(groupID, name, code string) error {
	group, ok := s.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}

	for i, item := range group.Items {
		if item.Name == name && item.Code == code {
			group.Items = append(group.Items[:i], group.Items[i+1:]...)
			if len(group.Items) == 0 {
				delete(s.groups, groupID)
			}
			return s.persist()
		}
	}

	return ErrItemNotFound
}

// RenameGroup sets the display name of a group.
func (s *Store) RenameGroup(groupID, newName string) error {
	group, ok := s.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	group.Name = newName
	return s.persist()
}

// MergeGroups copies the unique members of source into target and deletes
// source. Members already present in target (exact name+code match) are
// skipped.
func (s *Store) MergeGroups(sourceID, targetID string) error {
	source, ok := s.groups[sourceID]
	if !ok {
		return fmt.Errorf("source: %w", ErrGroupNotFound)
	}
	target, ok := s.groups[targetID]
	if !ok {
		return fmt.Errorf("target: %w", ErrGroupNotFound)
	}

	for _, item := range source.Items {
		exists := false
		for _, existing := range target.Items {
			if existing == item {
				exists = true
				break
			}
		}
		if !exists {
			target.Items = append(target.Items, item)
		}
	}

	delete(s.groups, sourceID)
	return s.persist()
}

// FindGroupFor scans all groups for an exact (name, code) member match.
func (s *Store) FindGroupFor(name, code string) (string, bool) {
	for _, id := range s.sortedIDs() {
		for _, item := range s.groups[id].Items {
			if item.Name == name && item.Code == code {
				return id, true
			}
		}
	}
	return "", false
}

// Group returns a copy of a single group.
func (s *Store) Group(id string) (domain.Group, bool) {
	group, ok := s.groups[id]
	if !ok {
		return domain.Group{}, false
	}
	return domain.Group{
		ID:    id,
		Name:  group.Name,
		Items: append([]domain.Item(nil), group.Items...),
	}, true
}

// Groups returns copies of all groups ordered by id.
func (s *Store) Groups() []domain.Group {
	out := make([]domain.Group, 0, len(s.groups))
	for _, id := range s.sortedIDs() {
		group, _ := s.Group(id)
		out = append(out, group)
	}
	return out
}

// UpdateFromResolution adds newly resolved groups to the store, skipping
// groups whose member set substantially overlaps an existing one. Returns the
// number of groups added.
func (s *Store) UpdateFromResolution(groups map[string][]domain.Item) (int, error) {
	added := 0

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		items := groups[id]
		if len(items) == 0 {
			continue
		}
		if _, ok := s.groups[id]; ok {
			continue
		}

		exists := false
		for _, existing := range s.groups {
			if sameMemberSet(items, existing.Items) {
				exists = true
				break
			}
		}
		if exists {
			continue
		}

		s.groups[id] = &storedGroup{
			Name:  resolvedGroupName(items),
			Items: append([]domain.Item(nil), items...),
		}
		added++
	}

	if added == 0 {
		return 0, nil
	}

	log.Info().Int("added", added).Msg("mapping store updated from resolution")
	return added, s.persist()
}

// sameMemberSet treats two member lists as the same group when their sizes
// differ by at most 2 and at least half of the smaller list matches exactly.
func sameMemberSet(a, b []domain.Item) bool {
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > 2 {
		return false
	}

	matches := 0
	for _, x := range a {
		for _, y := range b {
			if x == y {
				matches++
				break
			}
		}
	}

	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(matches) >= float64(smaller)/2
}

func resolvedGroupName(items []domain.Item) string {
	for _, item := range items {
		if item.Code != "" {
			return "Группа " + item.Code
		}
	}
	name := []rune(items[0].Name)
	if len(name) > 20 {
		name = name[:20]
	}
	return "Группа " + string(name)
}

func (s *Store) sortedIDs() []string {
	ids := make([]string, 0, len(s.groups))
	for id := range s.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) persist() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create mapping directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(s.groups, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode mapping store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mapping file %s: %w", s.path, err)
	}

	return nil
}
