package game

// Interval fires every Period seconds of simulated time.
type Interval struct {
	Period  float64
	elapsed float64
}

// NewInterval creates an interval. With fireNow set, the first Advance
// fires immediately.
func NewInterval(period float64, fireNow bool) *Interval {
	iv := &Interval{Period: period}
	if fireNow {
		iv.elapsed = period
	}
	return iv
}

// Advance adds dt seconds and returns how many periods elapsed.
func (iv *Interval) Advance(dt float64) int {
	if iv.Period <= 0 {
		return 0
	}
	iv.elapsed += dt
	n := 0
	for iv.elapsed >= iv.Period {
		iv.elapsed -= iv.Period
		n++
	}
	return n
}
