// Package game is the interactive viewer: it loads scenes into a world,
// draws them and exposes the identity registry through a debug panel.
package game

import (
	"errors"
	"fmt"

	"crossref/internal/camera"
	"crossref/internal/config"
	"crossref/internal/editor"
	"crossref/internal/engine"
	"crossref/internal/logger"
	"crossref/internal/reference"
	"crossref/internal/scripts"
	"crossref/internal/world"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var ErrNoTarget = errors.New("game: no cross-scene target")

type Game struct {
	World  *world.World
	Editor *editor.Editor
	Camera *camera.FlyCamera

	// Target follows the object the first Spinner with a target points at.
	Target      reference.GuidReference
	targetScene string

	// ShowPanel toggles the registry panel.
	ShowPanel bool
	panel     panelState

	scenePaths map[string]string
	drawn      int
	cfg        *config.Config
	log        *logger.Logger
}

func New(cfg *config.Config, w *world.World) *Game {
	if cfg == nil {
		cfg = config.Default()
	}
	cam := camera.New(rl.Vector3{X: 12, Y: 8, Z: 12})
	cam.LookAt(rl.Vector3{})
	return &Game{
		World:      w,
		Editor:     editor.New(w),
		Camera:     cam,
		ShowPanel:  true,
		scenePaths: make(map[string]string),
		cfg:        cfg,
		log:        w.Log.With("component", "game"),
	}
}

// LoadScenes loads every path in order and picks the demo target.
func (g *Game) LoadScenes(paths []string) error {
	for _, p := range paths {
		s, err := g.World.LoadScene(p)
		if err != nil {
			return err
		}
		g.scenePaths[s.Name] = p
	}
	g.pickTarget()
	return nil
}

func (g *Game) pickTarget() {
	for _, s := range g.World.Scenes {
		for _, obj := range s.GameObjects {
			sp := engine.GetComponent[*scripts.Spinner](obj)
			if sp == nil || sp.Target.Guid.IsEmpty() {
				continue
			}
			g.Target = reference.GuidReference{Registry: g.World.Registry()}
			g.Target.SetGuid(sp.Target.Guid)
			g.trackTargetScene()
			g.log.Info("demo target picked", "spinner", obj.Path(), "target", g.Target.Guid,
				"loaded", g.Target.IsValid())
			return
		}
	}
	g.log.Warn("no spinner with a target found")
}

func (g *Game) trackTargetScene() {
	if obj := g.Target.GameObject(); obj != nil && obj.Scene != nil {
		g.targetScene = obj.Scene.Name
	}
}

// DestroyTarget deletes the target object through the editor, so it can be
// undone.
func (g *Game) DestroyTarget() error {
	obj := g.Target.GameObject()
	if obj == nil {
		return ErrNoTarget
	}
	return g.Editor.Delete(obj)
}

// ToggleTargetScene unloads the scene holding the target, or loads it back
// from its file when it is not loaded.
func (g *Game) ToggleTargetScene() error {
	g.trackTargetScene()
	name := g.targetScene
	if name == "" {
		return ErrNoTarget
	}
	if g.World.Scene(name) != nil {
		if sel := g.Editor.Selected; sel != nil && sel.Scene != nil && sel.Scene.Name == name {
			g.Editor.Selected = nil
		}
		g.Editor.ClearUndo()
		return g.World.UnloadScene(name)
	}
	path, ok := g.scenePaths[name]
	if !ok {
		return fmt.Errorf("%w: %s", world.ErrUnknownScene, name)
	}
	_, err := g.World.LoadScene(path)
	return err
}

// SaveAll writes every loaded scene back to the file it came from, then the
// mapping store.
func (g *Game) SaveAll() error {
	var errs []error
	for _, s := range g.World.Scenes {
		path, ok := g.scenePaths[s.Name]
		if !ok {
			continue
		}
		if err := g.World.SaveScene(s.Name, path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := g.Editor.SaveMappings(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (g *Game) Run() {
	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(g.cfg.Window.Width), int32(g.cfg.Window.Height), g.cfg.Window.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(120)
	initRayguiStyle()
	defer g.World.Unload()

	for !rl.WindowShouldClose() {
		g.Update(rl.GetFrameTime())
		g.Draw()
	}
}

func (g *Game) Update(deltaTime float32) {
	g.handleKeys()
	g.handlePick()
	g.Camera.Update(deltaTime, camera.ReadInput())
	g.World.Update(deltaTime)
}

func (g *Game) handleKeys() {
	ctrl := rl.IsKeyDown(rl.KeyLeftControl) || rl.IsKeyDown(rl.KeyRightControl)

	switch {
	case rl.IsKeyPressed(rl.KeyF1):
		g.ShowPanel = !g.ShowPanel
	case ctrl && rl.IsKeyPressed(rl.KeyZ):
		if !g.Editor.Undo() {
			g.Editor.Status = "Nothing to undo"
		}
	case ctrl && rl.IsKeyPressed(rl.KeyD):
		if sel := g.Editor.Selected; sel != nil {
			g.report(g.Editor.Duplicate(sel))
		}
	case ctrl && rl.IsKeyPressed(rl.KeyS):
		g.report(nil, g.SaveAll())
	case rl.IsKeyPressed(rl.KeyDelete):
		if sel := g.Editor.Selected; sel != nil {
			g.report(nil, g.Editor.Delete(sel))
		}
	case rl.IsKeyPressed(rl.KeyX):
		g.report(nil, g.DestroyTarget())
	case rl.IsKeyPressed(rl.KeyL):
		g.report(nil, g.ToggleTargetScene())
	}
}

// handlePick selects the object under the cursor on left click, unless the
// cursor is over the registry panel.
func (g *Game) handlePick() {
	if !rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		return
	}
	mouse := rl.GetMousePosition()
	if g.ShowPanel && rl.CheckCollisionPointRec(mouse, panelBounds()) {
		return
	}
	ray := rl.GetScreenToWorldRay(mouse, g.Camera.Camera3D())
	if hit, ok := g.World.Raycast(ray.Position, ray.Direction, 500); ok {
		g.Editor.Selected = hit.GameObject
		g.Editor.Status = "Selected " + hit.GameObject.Path()
	} else {
		g.Editor.Selected = nil
	}
}

func (g *Game) report(_ *engine.GameObject, err error) {
	if err != nil {
		g.Editor.Status = err.Error()
		g.log.Warn("action failed", "error", err)
	}
}

func (g *Game) Draw() {
	cam := g.Camera.Camera3D()

	rl.BeginDrawing()
	rl.ClearBackground(colorBgDark)

	rl.BeginMode3D(cam)
	rl.DrawGrid(20, 1)
	g.drawn = g.World.Draw(cam)
	if target := g.Target.GameObject(); target != nil {
		rl.DrawSphereWires(target.WorldPosition(), 1.2, 8, 8, colorAccentLight)
	}
	if sel := g.Editor.Selected; sel != nil && !sel.Destroyed() {
		rl.DrawCubeWires(sel.WorldPosition(), 1.1, 1.1, 1.1, colorAccent)
	}
	rl.EndMode3D()

	g.DrawUI()
	rl.EndDrawing()
}

func (g *Game) DrawUI() {
	rl.DrawText("RMB+WASD/QE to fly, X destroy target, L toggle target scene", 10, 10, 18, colorTextSecondary)
	rl.DrawText("Ctrl+S save, Ctrl+Z undo, Ctrl+D duplicate, Del delete, F1 registry", 10, 32, 18, colorTextSecondary)
	rl.DrawFPS(10, 56)

	rl.DrawText(g.targetLine(), 10, 80, 18, colorTextPrimary)
	rl.DrawText(fmt.Sprintf("Scenes: %d  Drawn: %d  Registered: %d",
		len(g.World.Scenes), g.drawn, g.World.Registry().Len()), 10, 102, 16, colorTextMuted)
	if g.Editor.Status != "" {
		rl.DrawText(g.Editor.Status, 10, int32(rl.GetScreenHeight())-28, 18, colorAccentLight)
	}

	if g.ShowPanel {
		g.drawPanel()
	}
}

func (g *Game) targetLine() string {
	if g.Target.Guid.IsEmpty() {
		return "Target: none"
	}
	if obj := g.Target.GameObject(); obj != nil {
		return fmt.Sprintf("Target: %s (%s)", obj.Path(), g.Target.Guid.Short())
	}
	return fmt.Sprintf("Target: %s not loaded", g.Target.Guid.Short())
}
