package probability

import "math"

// moments accumulates count, mean and the sum of squared deviations (M2) of a sample.
type moments struct {
	n    int
	mean float64
	m2   float64
}

func (m *moments) add(x float64) {
	m.n++
	d := x - m.mean
	m.mean += d / float64(m.n)
	m.m2 += d * (x - m.mean)
}

// merge folds o into m using the pairwise update of Chan et al.
func (m *moments) merge(o moments) {
	if o.n == 0 {
		return
	}
	if m.n == 0 {
		*m = o
		return
	}
	n := m.n + o.n
	d := o.mean - m.mean
	m.mean += d * float64(o.n) / float64(n)
	m.m2 += o.m2 + d*d*float64(m.n)*float64(o.n)/float64(n)
	m.n = n
}

func (m moments) variance() float64 {
	if m.n < 2 {
		return 0
	}
	return math.Max(m.m2, 0) / float64(m.n-1)
}

func (m moments) standardError() float64 {
	if m.n < 2 {
		return 0
	}
	return math.Sqrt(m.variance() / float64(m.n))
}

type chunkStats struct {
	call moments
	put  moments
}

func (c *chunkStats) merge(o chunkStats) {
	c.call.merge(o.call)
	c.put.merge(o.put)
}
