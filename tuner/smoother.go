package tuner

import (
	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
)

// centsSmoother exponentially smooths the cents deviation across valid
// detection cycles. Invalid cycles leave the accumulator untouched so a
// return to valid signal resumes from the last smoothed value rather than
// restarting from zero; the engine exposes zero cents while invalid.
type centsSmoother struct {
	alpha float64
	value float64
}

func newCentsSmoother(alpha float64) *centsSmoother {
	return &centsSmoother{alpha: common.Clamp(alpha, 0.0, 1.0)}
}

// update folds one valid raw cents value into the accumulator and returns
// the smoothed result
func (cs *centsSmoother) update(raw float64) float64 {
	cs.value = cs.value*cs.alpha + raw*(1.0-cs.alpha)
	return cs.value
}

func (cs *centsSmoother) reset() {
	cs.value = 0.0
}
