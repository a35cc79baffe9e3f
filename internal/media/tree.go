package media

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateID is returned when a snapshot carries the same identifier twice.
var ErrDuplicateID = errors.New("duplicate item id")

// ErrMissingID is returned when a snapshot node has no identifier.
var ErrMissingID = errors.New("item id is required")

// Patch is a partial update merged into one item. Nil fields are left alone.
type Patch struct {
	Status           *Status
	Progress         *int
	StatusText       *string
	SubtitleInfo     *SubtitleInfo
	Overrides        *Overrides
	ExternalSubtitle *string
}

// Tree stores the current scan snapshot with a flat identifier index.
type Tree struct {
	currentPath string
	roots       []*Item
	index       map[string]*Item
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{index: make(map[string]*Item)}
}

// Replace discards the previous snapshot and installs items. The tree takes
// ownership of the nodes. When the snapshot is invalid the previous tree is
// kept and an error is returned.
func (t *Tree) Replace(currentPath string, items []*Item) error {
	index := make(map[string]*Item)
	var walk func(nodes []*Item) ([]*Item, error)
	walk = func(nodes []*Item) ([]*Item, error) {
		kept := make([]*Item, 0, len(nodes))
		for _, node := range nodes {
			if node == nil {
				continue
			}
			node.ID = strings.TrimSpace(node.ID)
			if node.ID == "" {
				return nil, fmt.Errorf("%w (name %q)", ErrMissingID, node.Name)
			}
			if _, exists := index[node.ID]; exists {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateID, node.ID)
			}
			normalizeItem(node)
			index[node.ID] = node
			if node.IsDirectory {
				children, err := walk(node.Children)
				if err != nil {
					return nil, err
				}
				node.Children = children
			}
			kept = append(kept, node)
		}
		return kept, nil
	}
	roots, err := walk(items)
	if err != nil {
		return err
	}

	t.currentPath = currentPath
	t.roots = roots
	t.index = index
	return nil
}

func normalizeItem(node *Item) {
	if node.IsDirectory {
		if node.Children == nil {
			node.Children = []*Item{}
		}
		node.Status = StatusFolder
		node.Progress = 0
		return
	}
	node.Children = nil
	if _, ok := statusSet[node.Status]; !ok || node.Status == StatusFolder {
		node.Status = StatusIdle
	}
	node.Progress = clampProgress(node.Progress)
	if node.SubtitleInfo.SubType == "" {
		node.SubtitleInfo.SubType = SubtitleNone
	}
}

func clampProgress(value int) int {
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}

// Update merges patch into the item with the given identifier. Unknown
// identifiers are ignored; the return value reports whether a node matched.
func (t *Tree) Update(id string, patch Patch) bool {
	node, ok := t.index[id]
	if !ok {
		return false
	}
	if !node.IsDirectory {
		if patch.Status != nil && *patch.Status != StatusFolder {
			node.Status = *patch.Status
		}
		if patch.Progress != nil {
			node.Progress = clampProgress(*patch.Progress)
		}
	}
	if patch.StatusText != nil {
		node.StatusText = *patch.StatusText
	}
	if patch.SubtitleInfo != nil {
		info := *patch.SubtitleInfo
		info.Languages = cloneStrings(info.Languages)
		node.SubtitleInfo = info
	}
	if patch.Overrides != nil {
		overrides := *patch.Overrides
		overrides.TargetLanguages = cloneStrings(overrides.TargetLanguages)
		node.Overrides = overrides
	}
	if patch.ExternalSubtitle != nil {
		node.ExternalSubtitle = *patch.ExternalSubtitle
	}
	return true
}

// Lookup returns the live node for id.
func (t *Tree) Lookup(id string) (*Item, bool) {
	node, ok := t.index[id]
	return node, ok
}

// Contains reports whether id exists anywhere in the tree.
func (t *Tree) Contains(id string) bool {
	_, ok := t.index[id]
	return ok
}

// CurrentPath returns the path reported by the last scan.
func (t *Tree) CurrentPath() string {
	return t.currentPath
}

// Roots returns the top-level nodes.
func (t *Tree) Roots() []*Item {
	return t.roots
}

// Len returns the number of indexed nodes.
func (t *Tree) Len() int {
	return len(t.index)
}

// Walk visits every node depth-first in tree order. Returning false stops the walk.
func (t *Tree) Walk(fn func(item *Item, depth int) bool) {
	var walk func(nodes []*Item, depth int) bool
	walk = func(nodes []*Item, depth int) bool {
		for _, node := range nodes {
			if !fn(node, depth) {
				return false
			}
			if node.IsDirectory && !walk(node.Children, depth+1) {
				return false
			}
		}
		return true
	}
	walk(t.roots, 0)
}

// Files returns every file node in tree order.
func (t *Tree) Files() []*Item {
	var files []*Item
	t.Walk(func(item *Item, _ int) bool {
		if !item.IsDirectory {
			files = append(files, item)
		}
		return true
	})
	return files
}

// Clone returns a deep copy of the top-level nodes for readers outside the owner.
func (t *Tree) Clone() []*Item {
	out := make([]*Item, len(t.roots))
	for idx, root := range t.roots {
		out[idx] = root.Clone()
	}
	return out
}
