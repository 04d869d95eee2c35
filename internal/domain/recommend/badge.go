package recommend

// Badge is the tier earned from completed remediation modules.
type Badge string

// Badge tiers.
const (
	BadgeBeginner     Badge = "Beginner"
	BadgeIntermediate Badge = "Intermediate"
	BadgePro          Badge = "Pro"
)

// Completed-module counts at which each tier starts.
const (
	intermediateAt = 2
	proAt          = 4
)

// BadgeFor returns the tier for a completed-module count.
func BadgeFor(completed int) Badge {
	switch {
	case completed < intermediateAt:
		return BadgeBeginner
	case completed < proAt:
		return BadgeIntermediate
	default:
		return BadgePro
	}
}

// ModulesToNextBadge returns how many more modules earn the next tier.
// ok is false once the top tier is reached.
func ModulesToNextBadge(completed int) (remaining int, ok bool) {
	switch {
	case completed < intermediateAt:
		return intermediateAt - completed, true
	case completed < proAt:
		return proAt - completed, true
	default:
		return 0, false
	}
}
