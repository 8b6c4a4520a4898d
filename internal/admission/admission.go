// Package admission limits how many never-seen cards may be introduced per day.
// The allowance shrinks linearly as the number of struggling cards approaches
// StruggleCap and reaches zero at the cap.
package admission

import (
	"math"

	"github.com/conorfennell/recall/internal/domain"
)

// Policy configures the daily admission limit.
type Policy struct {
	NewPerDay   int
	StruggleCap int
}

func DefaultPolicy() Policy {
	return Policy{NewPerDay: 5, StruggleCap: 10}
}

// Factor is the share of NewPerDay still open given the struggling count.
func (p Policy) Factor(struggling int) float64 {
	if p.StruggleCap <= 0 {
		return 1
	}
	f := float64(p.StruggleCap-struggling) / float64(p.StruggleCap)
	return math.Max(0, math.Min(1, f))
}

// Compute returns the allowance for the given inputs. Date is left empty.
// usedToday is clamped down to the recomputed allowance, never up. Controller
// computes once per day, before any use, so it always passes 0.
func (p Policy) Compute(unseen, usedToday, struggling int) domain.Allowance {
	base := max(p.NewPerDay, 0)
	allowed := int(math.Floor(float64(base) * p.Factor(struggling)))
	allowed = max(0, min(allowed, unseen, base))
	used := max(0, min(usedToday, allowed))
	return domain.Allowance{Allowed: allowed, Used: used}
}
