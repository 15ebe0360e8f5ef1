package distortions

import (
	"fmt"
	"strconv"
	"strings"
)

// Pair is one control-point correspondence within a distortion set.
type Pair struct {
	ID              string `json:"_id"`
	DistortionSetID string `json:"distortion_set_id"`
	Position        int    `json:"position"`
	StartX          int    `json:"start_x"`
	StartY          int    `json:"start_y"`
	EndX            int    `json:"end_x"`
	EndY            int    `json:"end_y"`
}

// Token formats the pair as "startX,startY,endX,endY".
func (p Pair) Token() string {
	return fmt.Sprintf("%d,%d,%d,%d", p.StartX, p.StartY, p.EndX, p.EndY)
}

// ParsePair reads the Token form back into a Pair.
func ParsePair(token string) (Pair, error) {
	parts := strings.Split(strings.TrimSpace(token), ",")
	if len(parts) != 4 {
		return Pair{}, fmt.Errorf("pair %q: want startX,startY,endX,endY", token)
	}
	var vals [4]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Pair{}, fmt.Errorf("pair %q: %w", token, err)
		}
		vals[i] = v
	}
	return Pair{StartX: vals[0], StartY: vals[1], EndX: vals[2], EndY: vals[3]}, nil
}
