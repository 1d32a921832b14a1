package engine

import (
	"fmt"
	"strings"
)

// Path returns the structural path of g: "<scene>:<root>/<child>". A segment
// carries "[n]" when n earlier siblings share its name. The path survives the
// object being destroyed and re-created at the same place, which is what the
// mapping store keys on.
func (g *GameObject) Path() string {
	scene := ""
	if g.Scene != nil {
		scene = g.Scene.Name
	} else if g.PrefabAsset {
		scene = g.PrefabSource
	}

	var segments []string
	for o := g; o != nil; o = o.Parent {
		segments = append(segments, o.pathSegment())
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return scene + ":" + strings.Join(segments, "/")
}

func (g *GameObject) pathSegment() string {
	var siblings []*GameObject
	switch {
	case g.Parent != nil:
		siblings = g.Parent.Children
	case g.Scene != nil:
		siblings = g.Scene.Roots()
	}

	n := 0
	for _, s := range siblings {
		if s == g {
			break
		}
		if s.Name == g.Name {
			n++
		}
	}
	if n == 0 {
		return g.Name
	}
	return fmt.Sprintf("%s[%d]", g.Name, n)
}

// ComponentPath returns the path of c inside its object: "<Type>[k]" where k
// is the ordinal of c among components of the same type. Returns "" when c is
// not attached.
func ComponentPath(c Component) string {
	g := c.GetGameObject()
	if g == nil {
		return ""
	}
	name := TypeName(c)
	k := 0
	for _, other := range g.components {
		if other == c {
			return fmt.Sprintf("%s[%d]", name, k)
		}
		if TypeName(other) == name {
			k++
		}
	}
	return ""
}
