package bot

import (
	"image"

	"jordanella.com/battlefarm-go/internal/cv"
)

// Layout holds the fixed tap targets of the farming sequences. The points are
// device pixels for a single screen resolution and are never scaled.
type Layout struct {
	FirstTroop        image.Point
	UpgradeMenu       image.Point
	UpgradeProduction image.Point
	BattleMenu        image.Point
}

// DefaultLayout returns the hand-measured tap targets
func DefaultLayout() Layout {
	return Layout{
		FirstTroop:        image.Pt(680, 2024),
		UpgradeMenu:       image.Pt(330, 2178),
		UpgradeProduction: image.Pt(852, 1307),
		BattleMenu:        image.Pt(543, 2178),
	}
}

// productionTaps repeats the upgrade production point n times
func (l Layout) productionTaps(n int) []image.Point {
	points := make([]image.Point, n)
	for i := range points {
		points[i] = l.UpgradeProduction
	}
	return points
}

// Outside names the targets that do not fall within bounds
func (l Layout) Outside(bounds cv.Region) []string {
	targets := []struct {
		name  string
		point image.Point
	}{
		{"first_troop", l.FirstTroop},
		{"upgrade_menu", l.UpgradeMenu},
		{"upgrade_production", l.UpgradeProduction},
		{"battle_menu", l.BattleMenu},
	}

	var outside []string
	for _, t := range targets {
		if !bounds.Contains(t.point) {
			outside = append(outside, t.name)
		}
	}
	return outside
}
