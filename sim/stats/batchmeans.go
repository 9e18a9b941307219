package stats

// BatchMeans groups consecutive observations into fixed-size batches and
// summarizes the batch means. Consecutive simulation outputs are correlated;
// batch means of a large enough size are approximately independent, so the
// Welford summary over them yields a usable confidence interval.
type BatchMeans struct {
	size    int
	current Welford
	batches Welford
	means   []float64
}

// NewBatchMeans returns an accumulator closing a batch every size observations.
func NewBatchMeans(size int) *BatchMeans {
	if size < 1 {
		size = 1
	}
	return &BatchMeans{size: size}
}

// Add folds x into the open batch, closing it when full.
func (b *BatchMeans) Add(x float64) {
	b.current.Add(x)
	if b.current.Count() == int64(b.size) {
		m := b.current.Mean()
		b.batches.Add(m)
		b.means = append(b.means, m)
		b.current = Welford{}
	}
}

// Size returns the batch size.
func (b *BatchMeans) Size() int { return b.size }

// Batches returns the number of closed batches. The trailing partial batch is not counted.
func (b *BatchMeans) Batches() int { return len(b.means) }

// Means returns the closed batch means in order.
func (b *BatchMeans) Means() []float64 { return b.means }

// Summary returns the Welford summary of the closed batch means.
func (b *BatchMeans) Summary() *Welford { return &b.batches }

// Interval returns the confidence interval over closed batch means.
func (b *BatchMeans) Interval(level float64) (Interval, error) {
	return ConfidenceInterval(&b.batches, level)
}
