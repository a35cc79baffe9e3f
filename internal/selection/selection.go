// Package selection tracks which library items the operator has selected.
//
// Membership changes only through Toggle. The set keys off item identifiers,
// so it survives rescans; identifiers that disappear from a fresh snapshot
// become dangling entries that readers treat as absent.
package selection

import (
	"sort"

	"substudio/internal/media"
)

// Set is a selection index keyed by item identifier.
type Set struct {
	ids map[string]struct{}
}

// New returns an empty selection.
func New() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// Toggle flips membership of id. For a directory with loaded children the
// same direction is applied to every descendant, folders and files alike.
// The direction is decided once from the current membership of id. Toggle
// returns true when id ends up selected.
func (s *Set) Toggle(id string, isDirectory bool, children []*media.Item) bool {
	_, selected := s.ids[id]
	adding := !selected
	s.apply(id, adding)
	if isDirectory && len(children) > 0 {
		var walk func(nodes []*media.Item)
		walk = func(nodes []*media.Item) {
			for _, node := range nodes {
				if node == nil {
					continue
				}
				s.apply(node.ID, adding)
				walk(node.Children)
			}
		}
		walk(children)
	}
	return adding
}

func (s *Set) apply(id string, adding bool) {
	if adding {
		s.ids[id] = struct{}{}
		return
	}
	delete(s.ids, id)
}

// Contains reports whether id is selected.
func (s *Set) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected identifiers, dangling ones included.
func (s *Set) Len() int {
	return len(s.ids)
}

// IDs returns the selected identifiers in sorted order.
func (s *Set) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clear removes every identifier.
func (s *Set) Clear() {
	s.ids = make(map[string]struct{})
}

// FullySelected reports whether every file under dir is selected. A directory
// without files is never fully selected.
func (s *Set) FullySelected(dir *media.Item) bool {
	if dir == nil || !dir.IsDirectory {
		return false
	}
	files := 0
	for _, node := range dir.Descendants() {
		if node.IsDirectory {
			continue
		}
		files++
		if !s.Contains(node.ID) {
			return false
		}
	}
	return files > 0
}

// Resolve returns the selected items that still exist in tree, in tree order.
func (s *Set) Resolve(tree *media.Tree) []*media.Item {
	var out []*media.Item
	tree.Walk(func(item *media.Item, _ int) bool {
		if s.Contains(item.ID) {
			out = append(out, item)
		}
		return true
	})
	return out
}

// Dangling returns selected identifiers missing from tree.
func (s *Set) Dangling(tree *media.Tree) []string {
	var out []string
	for _, id := range s.IDs() {
		if !tree.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}
