// Package faces maps a stage onto the per-mood image set the host UI shows
// and writes that mapping into the host's face overlay file.
package faces

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

// Moods are the face keys the host UI requires for every stage.
var Moods = []string{
	"look_r", "look_l", "look_r_happy", "look_l_happy",
	"sleep", "sleep2", "awake", "bored", "intense", "cool",
	"happy", "excited", "grateful", "motivated", "demotivated",
	"smart", "lonely", "sad", "angry", "friend", "broken",
	"debug", "upload", "upload1", "upload2",
}

// DefaultRoot is where the stage folders live on the device.
const DefaultRoot = "/custom-faces"

// Set maps mood key to image path.
type Set map[string]string

// Resolver resolves a stage to its face set.
type Resolver interface {
	Resolve(s stage.Stage) (Set, error)
}

// FolderResolver finds faces in one folder per stage below Root. Folder names
// are the stage name without spaces ("metal greymon" -> metalgreymon) unless
// overridden.
type FolderResolver struct {
	Root      string
	Overrides map[stage.Stage]string
	folders   map[stage.Stage]string
}

// NewFolderResolver creates a resolver covering every known stage.
func NewFolderResolver(root string, overrides map[stage.Stage]string) *FolderResolver {
	if root == "" {
		root = DefaultRoot
	}
	folders := make(map[stage.Stage]string, len(stage.All()))
	for _, s := range stage.All() {
		folders[s] = strings.ReplaceAll(string(s), " ", "")
	}
	for s, dir := range overrides {
		folders[s] = dir
	}
	return &FolderResolver{Root: root, Overrides: overrides, folders: folders}
}

// Resolve returns the mood->image set for s, or a config-resolution error
// when s has no folder.
func (r *FolderResolver) Resolve(s stage.Stage) (Set, error) {
	folder, ok := r.folders[s]
	if !ok || folder == "" {
		return nil, errors.ConfigResolutionError("missing face folder for stage").
			WithContext("stage", string(s)).
			Build()
	}
	dir := folder
	if !filepath.IsAbs(dir) {
		dir = path.Join(r.Root, folder)
	}
	set := make(Set, len(Moods))
	for _, mood := range Moods {
		set[mood] = path.Join(dir, mood+".png")
	}
	return set, nil
}

// Applier pushes a resolved face set to the host.
type Applier interface {
	Apply(ctx context.Context, s stage.Stage) error
}

// OverlayWriter writes `ui.faces` for the current stage to a YAML overlay the
// host merges into its own configuration.
type OverlayWriter struct {
	resolver Resolver
	path     string
}

// NewOverlayWriter creates an applier writing to overlayPath.
func NewOverlayWriter(resolver Resolver, overlayPath string) *OverlayWriter {
	return &OverlayWriter{resolver: resolver, path: overlayPath}
}

type overlay struct {
	UI struct {
		Faces Set `yaml:"faces"`
	} `yaml:"ui"`
}

// Apply resolves s and rewrites the overlay file.
func (w *OverlayWriter) Apply(ctx context.Context, s stage.Stage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	set, err := w.resolver.Resolve(s)
	if err != nil {
		return err
	}
	var doc overlay
	doc.UI.Faces = set
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal face overlay: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryPersistence, "create face overlay directory").
			WithContext("path", w.path).
			Build()
	}
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryPersistence, "write face overlay").
			WithContext("path", w.path).
			Build()
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return errors.WrapError(err, errors.CategoryPersistence, "replace face overlay").
			WithContext("path", w.path).
			Build()
	}
	return nil
}

// ReadOverlay loads an overlay written by Apply.
func ReadOverlay(overlayPath string) (Set, error) {
	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return nil, err
	}
	var doc overlay
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse face overlay: %w", err)
	}
	return doc.UI.Faces, nil
}

// NoopApplier skips face updates (hosts that manage faces themselves).
type NoopApplier struct{}

func (NoopApplier) Apply(context.Context, stage.Stage) error { return nil }
