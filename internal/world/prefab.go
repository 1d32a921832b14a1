package world

import (
	"encoding/json"
	"fmt"
	"os"

	"crossref/internal/engine"
)

// PrefabFile is the on-disk form of a template.
type PrefabFile struct {
	Asset string    `json:"asset"`
	Root  ObjectDef `json:"root"`
}

// CreatePrefab stores a template copy of src under assetPath. Templates hold
// no identities; instances get their own.
func (w *World) CreatePrefab(src *engine.GameObject, assetPath string) *engine.GameObject {
	asset := engine.NewPrefabAsset(src, assetPath)
	w.Prefabs[assetPath] = asset
	w.Log.Debug("prefab created", "asset", assetPath, "from", src.Path())
	return asset
}

func (w *World) Prefab(assetPath string) (*engine.GameObject, error) {
	asset, ok := w.Prefabs[assetPath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrefab, assetPath)
	}
	return asset, nil
}

// InstantiatePrefab adds a live instance of the template to the named scene.
func (w *World) InstantiatePrefab(assetPath, sceneName string) (*engine.GameObject, error) {
	asset, err := w.Prefab(assetPath)
	if err != nil {
		return nil, err
	}
	inst := engine.InstantiatePrefab(asset)
	if err := w.Spawn(sceneName, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (w *World) SavePrefab(assetPath, path string) error {
	asset, err := w.Prefab(assetPath)
	if err != nil {
		return err
	}
	if err := writeJSON(path, PrefabFile{Asset: assetPath, Root: serializeObject(asset)}); err != nil {
		return fmt.Errorf("save prefab %s: %w", assetPath, err)
	}
	return nil
}

// LoadPrefab reads a template from path and registers it under its asset path.
func (w *World) LoadPrefab(path string) (*engine.GameObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prefab: %w", err)
	}
	var pf PrefabFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse prefab %s: %w", path, err)
	}
	if pf.Asset == "" {
		pf.Asset = path
	}
	root := w.buildObject(pf.Root)
	root.PrefabAsset = true
	root.PrefabSource = pf.Asset
	root.Validate()
	w.Prefabs[pf.Asset] = root
	return root, nil
}

// OpenPrefabStage opens an editable copy of a template. Objects in the stage
// count as templates too and hold no identities.
func (w *World) OpenPrefabStage(assetPath string) (*engine.GameObject, error) {
	asset, err := w.Prefab(assetPath)
	if err != nil {
		return nil, err
	}
	w.ClosePrefabStage()
	w.Stage = engine.NewScene("prefab:" + assetPath)
	w.Stage.PrefabStage = true
	root := engine.InstantiatePrefab(asset)
	w.Stage.AddGameObject(root)
	return root, nil
}

// ApplyPrefabStage writes the stage's root back as the template.
func (w *World) ApplyPrefabStage() error {
	if w.Stage == nil {
		return nil
	}
	roots := w.Stage.Roots()
	if len(roots) == 0 {
		return nil
	}
	root := roots[0]
	if _, ok := w.Prefabs[root.PrefabSource]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPrefab, root.PrefabSource)
	}
	w.CreatePrefab(root, root.PrefabSource)
	return nil
}

func (w *World) ClosePrefabStage() {
	if w.Stage == nil {
		return
	}
	w.Stage.Unload()
	w.Stage = nil
}
