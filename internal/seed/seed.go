// Package seed loads group configuration and distortion sets from a YAML file.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"picture-analysis/internal/distortions"
	"picture-analysis/internal/groups"
	"picture-analysis/internal/scaling"
	"picture-analysis/internal/shared/telemetry"
)

var validate = validator.New()

// File is the on-disk layout:
//
//	groups:
//	  - id: cam-north
//	    scaleType: colorize_bilinear
//	    colorizeRange: ["#000080", "#FFD700"]
//	distortionSets:
//	  - id: lens-a
//	    pairs: ["300,110,350,140", "600,310,650,340"]
type File struct {
	Groups         []Group `yaml:"groups" validate:"dive"`
	DistortionSets []Set   `yaml:"distortionSets" validate:"dive"`
}

type Group struct {
	ID            string   `yaml:"id" validate:"required"`
	ScaleType     string   `yaml:"scaleType"`
	ColorizeRange []string `yaml:"colorizeRange" validate:"omitempty,len=2"`
}

type Set struct {
	ID    string   `yaml:"id" validate:"required"`
	Pairs []string `yaml:"pairs" validate:"required,min=1"`
}

// Load reads and validates a seed file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates seed YAML. Unknown keys are rejected.
func Parse(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		return File{}, fmt.Errorf("invalid seed file: %w", err)
	}
	for _, g := range f.Groups {
		for _, c := range g.ColorizeRange {
			if _, err := scaling.ParseColor(c); err != nil {
				return File{}, fmt.Errorf("group %s: %w", g.ID, err)
			}
		}
	}
	return f, nil
}

// Result counts what Apply stored.
type Result struct {
	Groups int `json:"groups"`
	Sets   int `json:"sets"`
	Pairs  int `json:"pairs"`
}

// Apply writes every group and replaces every listed distortion set.
func Apply(ctx context.Context, f File, gw groups.Writer, dw distortions.Writer) (Result, error) {
	var res Result
	for _, g := range f.Groups {
		out := groups.Group{ID: g.ID, ScaleType: g.ScaleType}
		if len(g.ColorizeRange) == 2 {
			out.ColorizeRangeLow, out.ColorizeRangeHigh = g.ColorizeRange[0], g.ColorizeRange[1]
		}
		if err := gw.Upsert(ctx, out); err != nil {
			return res, fmt.Errorf("store group %s: %w", g.ID, err)
		}
		res.Groups++
	}
	for _, s := range f.DistortionSets {
		pairs, err := toPairs(s)
		if err != nil {
			return res, err
		}
		if err := dw.ReplaceSet(ctx, s.ID, pairs); err != nil {
			return res, fmt.Errorf("store distortion set %s: %w", s.ID, err)
		}
		res.Sets++
		res.Pairs += len(pairs)
	}
	telemetry.Info("seed.applied", map[string]any{"groups": res.Groups, "sets": res.Sets, "pairs": res.Pairs})
	return res, nil
}

func toPairs(s Set) ([]distortions.Pair, error) {
	out := make([]distortions.Pair, 0, len(s.Pairs))
	for i, raw := range s.Pairs {
		p, err := distortions.ParsePair(raw)
		if err != nil {
			return nil, fmt.Errorf("distortion set %s pair %d: %w", s.ID, i, err)
		}
		p.ID = fmt.Sprintf("%s-%03d", s.ID, i)
		p.DistortionSetID = s.ID
		p.Position = i
		out = append(out, p)
	}
	return out, nil
}
