package game

import (
	"fmt"

	"crossref/internal/guid"
	"crossref/internal/registry"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	panelWidth   = 460
	panelHeader  = 28
	panelRowSize = 22
)

type panelState struct {
	scroll int
}

type panelRow struct {
	Guid  guid.Guid
	Label string
	Bound bool
}

func panelRows(entries []registry.EntryInfo) []panelRow {
	rows := make([]panelRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, panelRow{Guid: e.Guid, Label: entryLabel(e), Bound: e.Bound})
	}
	return rows
}

func entryLabel(e registry.EntryInfo) string {
	owner := "(placeholder)"
	if e.Bound {
		owner = e.Path
		if e.Component != "" {
			owner += " " + e.Component
		}
	}
	return fmt.Sprintf("%s  %s  %d", e.Guid.Short(), owner, e.Listeners)
}

// scrollBy moves the first visible row, keeping a full page in view.
func (p *panelState) scrollBy(delta, rows, visible int) {
	p.scroll += delta
	if p.scroll > rows-visible {
		p.scroll = rows - visible
	}
	if p.scroll < 0 {
		p.scroll = 0
	}
}

func panelBounds() rl.Rectangle {
	screenW := float32(rl.GetScreenWidth())
	screenH := float32(rl.GetScreenHeight())
	return rl.Rectangle{X: screenW - panelWidth - 10, Y: 10, Width: panelWidth, Height: screenH - 20}
}

func (g *Game) drawPanel() {
	rows := panelRows(g.World.Registry().Entries())

	bounds := panelBounds()
	gui.Panel(bounds, fmt.Sprintf("Registry  %d entries", len(rows)))

	visible := int((bounds.Height - panelHeader - 8) / panelRowSize)
	if rl.CheckCollisionPointRec(rl.GetMousePosition(), bounds) {
		g.panel.scrollBy(-int(rl.GetMouseWheelMove()), len(rows), visible)
	} else {
		g.panel.scrollBy(0, len(rows), visible)
	}

	y := bounds.Y + panelHeader + 4
	for i := g.panel.scroll; i < len(rows) && i < g.panel.scroll+visible; i++ {
		row := rows[i]
		marker := colorAccent
		if !row.Bound {
			marker = colorPlaceholder
		}
		rl.DrawRectangle(int32(bounds.X)+6, int32(y)+6, 6, 10, marker)

		labelBounds := rl.Rectangle{X: bounds.X + 18, Y: y, Width: bounds.Width - 90, Height: panelRowSize - 2}
		gui.Label(labelBounds, row.Label)

		if row.Bound {
			btn := rl.Rectangle{X: bounds.X + bounds.Width - 68, Y: y, Width: 60, Height: panelRowSize - 2}
			if gui.Button(btn, "Select") {
				g.Editor.Selected = g.World.FindByGuid(row.Guid)
			}
		}
		y += panelRowSize
	}
}
