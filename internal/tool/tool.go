// Package tool interprets pointer gestures according to the active editing
// tool. The controller owns only ephemeral interaction state; edits come
// back to the caller as new edit states along with what should happen to
// them.
package tool

import (
	"fmt"
	"strings"
)

// Tool is an editing tool. Exactly one is active at a time.
type Tool int

const (
	None Tool = iota
	Adjust
	Transform
	Crop
	Draw
	Text
	Shape
	Select
	Harmonize
	Remove
)

var toolNames = [...]string{
	None:      "none",
	Adjust:    "adjust",
	Transform: "transform",
	Crop:      "crop",
	Draw:      "draw",
	Text:      "text",
	Shape:     "shape",
	Select:    "select",
	Harmonize: "harmonize",
	Remove:    "remove",
}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("tool(%d)", int(t))
	}
	return toolNames[t]
}

// All returns every tool in toolbar order.
func All() []Tool {
	out := make([]Tool, len(toolNames))
	for i := range toolNames {
		out[i] = Tool(i)
	}
	return out
}

// Parse returns the tool with the given name.
func Parse(name string) (Tool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range toolNames {
		if n == name {
			return Tool(i), nil
		}
	}
	return None, fmt.Errorf("unknown tool %q", name)
}

// Effect tells the owner of the edit state what a controller call did.
type Effect uint8

const (
	// Redraw means the frame is stale: the live state or an overlay changed.
	Redraw Effect = 1 << iota
	// Commit means the returned state should become a history entry.
	Commit
)

// Has reports whether all bits of f are set in e.
func (e Effect) Has(f Effect) bool { return e&f == f }
