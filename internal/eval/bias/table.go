package bias

// Entry is the fitted offset of one group and the number of residual
// observations it was fitted from.
type Entry struct {
	Offset float64
	Count  int
}

// Table maps a grouping key to its fitted entry. Tables are built once by
// an accumulator and never modified afterwards.
type Table[K comparable] map[K]Entry

// Offset returns the fitted offset for key, or 0 when the key was never seen
func (t Table[K]) Offset(key K) float64 {
	return t[key].Offset
}

// Count returns the number of observations behind key
func (t Table[K]) Count(key K) int {
	return t[key].Count
}

// accumulator is a running sum and count per key
type accumulator[K comparable] struct {
	sums   map[K]float64
	counts map[K]int
}

func newAccumulator[K comparable]() *accumulator[K] {
	return &accumulator[K]{
		sums:   make(map[K]float64),
		counts: make(map[K]int),
	}
}

func (a *accumulator[K]) add(key K, residual float64) {
	a.sums[key] += residual
	a.counts[key]++
}

// table shrinks every group toward zero: sum / (count + lambda).
// With lambda == 0 this is the plain group mean; count is at least 1.
func (a *accumulator[K]) table(lambda float64) Table[K] {
	t := make(Table[K], len(a.sums))
	for key, sum := range a.sums {
		n := a.counts[key]
		t[key] = Entry{
			Offset: sum / (float64(n) + lambda),
			Count:  n,
		}
	}
	return t
}
