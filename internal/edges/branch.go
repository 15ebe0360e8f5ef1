package edges

import (
	"fmt"
	"strings"
)

// Selector chooses which branches an edge detection call runs.
type Selector string

const (
	SelectAll   Selector = "all"
	SelectAuto  Selector = "auto"
	SelectWide  Selector = "wide"
	SelectTight Selector = "tight"
)

// ParseSelector accepts the selector names case-insensitively; empty means all.
func ParseSelector(raw string) (Selector, error) {
	s := Selector(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case "":
		return SelectAll, nil
	case SelectAll, SelectAuto, SelectWide, SelectTight:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSelector, raw)
}

// Includes reports whether branch name runs under s.
func (s Selector) Includes(name Selector) bool {
	return s == SelectAll || s == name
}

// Branch is one edge extraction pass.
type Branch struct {
	Name Selector
	// Auto derives thresholds from the image median; Fixed is ignored.
	Auto  bool
	Fixed Thresholds
}

var (
	AutoBranch  = Branch{Name: SelectAuto, Auto: true}
	WideBranch  = Branch{Name: SelectWide, Fixed: Thresholds{Low: 10, High: 200}}
	TightBranch = Branch{Name: SelectTight, Fixed: Thresholds{Low: 225, High: 250}}
)

// EdgeDetectType is the tag stored on the branch's output document.
func (b Branch) EdgeDetectType() string {
	if b.Auto {
		return "auto"
	}
	return b.Fixed.Label()
}

// IDs carries the optional output ids for each branch.
type IDs struct {
	Auto  string
	Wide  string
	Tight string
}

// Planned pairs a branch with the output id it writes.
type Planned struct {
	Branch Branch
	ID     string
}

// Plan lists the branches to run in order: auto, wide, tight. Wide and tight
// only run when their id is present; auto always runs when selected, so callers
// must fill ids.Auto beforehand.
func Plan(sel Selector, ids IDs) []Planned {
	var out []Planned
	if sel.Includes(SelectAuto) {
		out = append(out, Planned{Branch: AutoBranch, ID: ids.Auto})
	}
	if sel.Includes(SelectWide) && ids.Wide != "" {
		out = append(out, Planned{Branch: WideBranch, ID: ids.Wide})
	}
	if sel.Includes(SelectTight) && ids.Tight != "" {
		out = append(out, Planned{Branch: TightBranch, ID: ids.Tight})
	}
	return out
}
