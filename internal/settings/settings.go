// Package settings owns the session-wide processing settings and their
// propagation into per-item overrides.
//
// Global changes are pushed into every file whose corresponding override
// field has not been edited directly. Fields the operator touched on an item
// stay locked until the item is explicitly re-synced.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"substudio/internal/language"
	"substudio/internal/media"
)

// ErrInvalid wraps every validation failure reported by this package.
var ErrInvalid = errors.New("invalid settings")

// Model sizes accepted by the transcription engine.
var modelSizes = []string{"tiny", "base", "small", "medium", "large"}

// ModelSizes lists the accepted transcription model sizes.
func ModelSizes() []string {
	out := make([]string, len(modelSizes))
	copy(out, modelSizes)
	return out
}

// Global is the session-wide settings record.
type Global struct {
	SourceLang           string
	TargetLanguages      []string
	WorkflowMode         media.Mode
	ModelSize            string
	AutoGenerate         bool
	ShouldMux            bool
	ShouldRemoveOriginal bool
	StripExistingSubs    bool
}

// Clone returns a copy that shares no slices with g.
func (g Global) Clone() Global {
	g.TargetLanguages = append([]string(nil), g.TargetLanguages...)
	return g
}

// Patch is a partial update of the global record. Nil fields are left alone.
type Patch struct {
	SourceLang           *string
	TargetLanguages      []string
	WorkflowMode         *media.Mode
	ModelSize            *string
	AutoGenerate         *bool
	ShouldMux            *bool
	ShouldRemoveOriginal *bool
	StripExistingSubs    *bool
}

// OverridePatch is an operator edit of a single item.
type OverridePatch struct {
	SourceLang        *string
	TargetLanguages   []string
	WorkflowMode      *media.Mode
	SyncOffset        *float64
	StripExistingSubs *bool
}

// Empty reports whether the patch sets nothing.
func (p OverridePatch) Empty() bool {
	return p.SourceLang == nil && p.TargetLanguages == nil && p.WorkflowMode == nil &&
		p.SyncOffset == nil && p.StripExistingSubs == nil
}

// Registry holds the global record. It is not safe for concurrent use; the
// session owns it from a single goroutine.
type Registry struct {
	global Global
}

// NewRegistry validates initial and returns a registry seeded with it.
func NewRegistry(initial Global) (*Registry, error) {
	normalized, err := normalizeGlobal(initial)
	if err != nil {
		return nil, err
	}
	return &Registry{global: normalized}, nil
}

// Global returns a copy of the current global record.
func (r *Registry) Global() Global {
	return r.global.Clone()
}

// Set merges patch into the global record and propagates the changed
// propagatable fields to every untouched file override in tree. It returns
// the number of files that received at least one value.
func (r *Registry) Set(tree *media.Tree, patch Patch) (int, error) {
	next := r.global.Clone()
	if patch.SourceLang != nil {
		next.SourceLang = *patch.SourceLang
	}
	if patch.TargetLanguages != nil {
		next.TargetLanguages = patch.TargetLanguages
	}
	if patch.WorkflowMode != nil {
		next.WorkflowMode = *patch.WorkflowMode
	}
	if patch.ModelSize != nil {
		next.ModelSize = *patch.ModelSize
	}
	if patch.AutoGenerate != nil {
		next.AutoGenerate = *patch.AutoGenerate
	}
	if patch.ShouldMux != nil {
		next.ShouldMux = *patch.ShouldMux
	}
	if patch.ShouldRemoveOriginal != nil {
		next.ShouldRemoveOriginal = *patch.ShouldRemoveOriginal
	}
	if patch.StripExistingSubs != nil {
		next.StripExistingSubs = *patch.StripExistingSubs
	}
	normalized, err := normalizeGlobal(next)
	if err != nil {
		return 0, err
	}
	r.global = normalized

	var changed media.FieldSet
	if patch.SourceLang != nil {
		changed = changed.With(media.FieldSourceLang)
	}
	if patch.TargetLanguages != nil {
		changed = changed.With(media.FieldTargetLanguages)
	}
	if patch.WorkflowMode != nil {
		changed = changed.With(media.FieldWorkflowMode)
	}
	if patch.StripExistingSubs != nil {
		changed = changed.With(media.FieldStripExistingSubs)
	}
	if changed == 0 || tree == nil {
		return 0, nil
	}

	updated := 0
	for _, item := range tree.Files() {
		if r.apply(&item.Overrides, changed) {
			updated++
		}
	}
	return updated, nil
}

// Seed gives every file in tree an untouched override record copied from
// the global settings. Sync offsets start at zero.
func (r *Registry) Seed(tree *media.Tree) {
	if tree == nil {
		return
	}
	for _, item := range tree.Files() {
		item.Overrides = r.seeded()
	}
}

// Override applies patch to the item's overrides and marks every field it
// sets as touched.
func (r *Registry) Override(item *media.Item, patch OverridePatch) error {
	if item == nil || item.IsDirectory {
		return fmt.Errorf("%w: overrides apply to files only", ErrInvalid)
	}
	next := item.Overrides
	next.TargetLanguages = append([]string(nil), next.TargetLanguages...)
	if patch.SourceLang != nil {
		code, err := normalizeSource(*patch.SourceLang)
		if err != nil {
			return err
		}
		next.SourceLang = code
		next.Touched = next.Touched.With(media.FieldSourceLang)
	}
	if patch.TargetLanguages != nil {
		codes, err := normalizeTargets(patch.TargetLanguages)
		if err != nil {
			return err
		}
		next.TargetLanguages = codes
		next.Touched = next.Touched.With(media.FieldTargetLanguages)
	}
	if patch.WorkflowMode != nil {
		mode, ok := media.ParseMode(string(*patch.WorkflowMode))
		if !ok {
			return fmt.Errorf("%w: workflow mode %q", ErrInvalid, *patch.WorkflowMode)
		}
		next.WorkflowMode = mode
		next.Touched = next.Touched.With(media.FieldWorkflowMode)
	}
	if patch.SyncOffset != nil {
		next.SyncOffset = *patch.SyncOffset
		next.Touched = next.Touched.With(media.FieldSyncOffset)
	}
	if patch.StripExistingSubs != nil {
		next.StripExistingSubs = *patch.StripExistingSubs
		next.Touched = next.Touched.With(media.FieldStripExistingSubs)
	}
	item.Overrides = next
	return nil
}

// Resync clears the touched flags of item and re-seeds it from the global
// record. The sync offset is kept since it has no global counterpart.
func (r *Registry) Resync(item *media.Item) {
	if item == nil || item.IsDirectory {
		return
	}
	offset := item.Overrides.SyncOffset
	item.Overrides = r.seeded()
	item.Overrides.SyncOffset = offset
}

func (r *Registry) seeded() media.Overrides {
	return media.Overrides{
		SourceLang:        r.global.SourceLang,
		TargetLanguages:   append([]string(nil), r.global.TargetLanguages...),
		WorkflowMode:      r.global.WorkflowMode,
		StripExistingSubs: r.global.StripExistingSubs,
	}
}

func (r *Registry) apply(overrides *media.Overrides, changed media.FieldSet) bool {
	applied := false
	if changed.Has(media.FieldSourceLang) && !overrides.Touched.Has(media.FieldSourceLang) {
		overrides.SourceLang = r.global.SourceLang
		applied = true
	}
	if changed.Has(media.FieldTargetLanguages) && !overrides.Touched.Has(media.FieldTargetLanguages) {
		overrides.TargetLanguages = append([]string(nil), r.global.TargetLanguages...)
		applied = true
	}
	if changed.Has(media.FieldWorkflowMode) && !overrides.Touched.Has(media.FieldWorkflowMode) {
		overrides.WorkflowMode = r.global.WorkflowMode
		applied = true
	}
	if changed.Has(media.FieldStripExistingSubs) && !overrides.Touched.Has(media.FieldStripExistingSubs) {
		overrides.StripExistingSubs = r.global.StripExistingSubs
		applied = true
	}
	return applied
}

func normalizeGlobal(g Global) (Global, error) {
	source, err := normalizeSource(g.SourceLang)
	if err != nil {
		return Global{}, err
	}
	g.SourceLang = source

	targets, err := normalizeTargets(g.TargetLanguages)
	if err != nil {
		return Global{}, err
	}
	g.TargetLanguages = targets

	if strings.TrimSpace(string(g.WorkflowMode)) == "" {
		g.WorkflowMode = media.ModeHybrid
	} else {
		mode, ok := media.ParseMode(string(g.WorkflowMode))
		if !ok {
			return Global{}, fmt.Errorf("%w: workflow mode %q", ErrInvalid, g.WorkflowMode)
		}
		g.WorkflowMode = mode
	}

	size := strings.ToLower(strings.TrimSpace(g.ModelSize))
	if size == "" {
		size = "base"
	}
	if !validModelSize(size) {
		return Global{}, fmt.Errorf("%w: model size %q (want one of %s)", ErrInvalid, g.ModelSize, strings.Join(modelSizes, ", "))
	}
	g.ModelSize = size
	return g, nil
}

func normalizeSource(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return language.Auto, nil
	}
	code, err := language.Normalize(value)
	if err != nil {
		return "", fmt.Errorf("%w: source language: %v", ErrInvalid, err)
	}
	return code, nil
}

func normalizeTargets(values []string) ([]string, error) {
	codes, err := language.NormalizeList(values)
	if err != nil {
		return nil, fmt.Errorf("%w: target languages: %v", ErrInvalid, err)
	}
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}

func validModelSize(size string) bool {
	for _, candidate := range modelSizes {
		if candidate == size {
			return true
		}
	}
	return false
}
