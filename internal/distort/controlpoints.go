package distort

import (
	"context"
	"fmt"
	"strings"

	"picture-analysis/internal/distortions"
	"picture-analysis/internal/shared/telemetry"
)

// Control point source modes.
const (
	SourceFixed = "fixed"
	SourceSet   = "set"
)

// FormatPairs joins pair tokens with single spaces.
func FormatPairs(pairs []distortions.Pair) string {
	tokens := make([]string, 0, len(pairs))
	for _, p := range pairs {
		tokens = append(tokens, p.Token())
	}
	return strings.Join(tokens, " ")
}

// ControlPointSource produces the Shepards control point argument for a set.
type ControlPointSource interface {
	ControlPoints(ctx context.Context, setID string) (string, error)
}

// SetSource uses the pairs stored for the set.
type SetSource struct {
	Pairs distortions.Repo
}

func (s SetSource) ControlPoints(ctx context.Context, setID string) (string, error) {
	pairs, err := s.Pairs.ListBySet(ctx, setID)
	if err != nil {
		return "", fmt.Errorf("list distortion set %q: %w", setID, err)
	}
	return FormatPairs(pairs), nil
}

// FixedSource still reads the set but always answers with Literal.
type FixedSource struct {
	Pairs   distortions.Repo
	Literal string
}

func (s FixedSource) ControlPoints(ctx context.Context, setID string) (string, error) {
	fetched := 0
	if s.Pairs != nil {
		pairs, err := s.Pairs.ListBySet(ctx, setID)
		if err != nil {
			return "", fmt.Errorf("list distortion set %q: %w", setID, err)
		}
		fetched = len(pairs)
	}
	telemetry.Warn("distort.control_points.overridden", map[string]any{
		"distortion_set_id": setID,
		"fetched_pairs":     fetched,
		"control_points":    s.Literal,
	})
	return s.Literal, nil
}

// NewSource builds the source for mode, which must be SourceFixed or SourceSet.
func NewSource(mode, literal string, pairs distortions.Repo) (ControlPointSource, error) {
	switch mode {
	case SourceFixed, "":
		return FixedSource{Pairs: pairs, Literal: literal}, nil
	case SourceSet:
		return SetSource{Pairs: pairs}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, mode)
}
