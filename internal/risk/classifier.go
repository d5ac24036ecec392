// Package risk classifies tool calls by whether they need human approval.
package risk

import "sort"

// Level is the risk classification of a tool.
type Level int

const (
	// Safe tools execute immediately.
	Safe Level = iota
	// RequiresApproval tools suspend into a pending governance task.
	RequiresApproval
)

func (l Level) String() string {
	if l == RequiresApproval {
		return "requires_approval"
	}
	return "safe"
}

// Classifier is a table-driven lookup from tool name to risk level. The table
// is an explicit allow-list of gated names; an unrecognized tool classifies
// safe. Operators extend the table through configuration as they register
// new tools.
type Classifier struct {
	gated map[string]bool
}

// DefaultGatedTools are the tool names gated out of the box.
var DefaultGatedTools = []string{"send_email"}

// NewClassifier builds a classifier gating the given tool names. A nil or
// empty list falls back to DefaultGatedTools.
func NewClassifier(gatedTools []string) *Classifier {
	if len(gatedTools) == 0 {
		gatedTools = DefaultGatedTools
	}
	gated := make(map[string]bool, len(gatedTools))
	for _, name := range gatedTools {
		if name != "" {
			gated[name] = true
		}
	}
	return &Classifier{gated: gated}
}

// Classify returns the risk level for a tool name.
func (c *Classifier) Classify(toolName string) Level {
	if c.gated[toolName] {
		return RequiresApproval
	}
	return Safe
}

// GatedTools returns the sorted list of gated tool names.
func (c *Classifier) GatedTools() []string {
	names := make([]string, 0, len(c.gated))
	for name := range c.gated {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
