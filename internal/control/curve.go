package control

// Control constants.
const (
	Alpha   = 0.3 // weight of the newest reading in the moving average
	Gain    = 2.5 // duty % per °C
	Offset  = -50 // duty % at 0 °C
	MinDuty = 30  // the fan never stops
	MaxDuty = 100
	MaxStep = 20 // max duty change per tick, in percentage points
)

// Smooth folds reading into the exponential moving average prev.
func Smooth(prev float64, reading int) float64 {
	return Alpha*float64(reading) + (1-Alpha)*prev
}

// TargetDuty maps a smoothed temperature to a duty in [MinDuty, MaxDuty],
// truncating toward zero.
func TargetDuty(smoothed float64) int {
	v := Gain*smoothed + Offset
	if v < MinDuty {
		v = MinDuty
	}
	if v > MaxDuty {
		v = MaxDuty
	}
	return int(v)
}

// Ramp moves from prev toward target by at most MaxStep.
func Ramp(prev, target int) int {
	return clampInt(target, prev-MaxStep, prev+MaxStep)
}

func clampInt(value, minValue, maxValue int) int {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}
	return value
}
