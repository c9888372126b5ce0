package tsne

// optimizer runs gradient descent with momentum and per-coordinate adaptive
// gains on an embedding. It owns the embedding state for the lifetime of the
// run: y is updated in place every step.
type optimizer struct {
	obj  objective
	n    int
	dims int

	y     []float64 // embedding, flat n*dims
	dY    []float64 // gradient
	uY    []float64 // velocity
	gains []float64

	momentum float64
	cfg      *Config
	reporter Reporter

	lastCost float64
	costIter int // iteration of lastCost, -1 if never evaluated
}

func newOptimizer(obj objective, y []float64, n, dims int, cfg *Config) *optimizer {
	o := &optimizer{
		obj:      obj,
		n:        n,
		dims:     dims,
		y:        y,
		dY:       make([]float64, n*dims),
		uY:       make([]float64, n*dims),
		gains:    make([]float64, n*dims),
		momentum: cfg.Momentum,
		cfg:      cfg,
		reporter: cfg.Reporter,
		costIter: -1,
	}
	for i := range o.gains {
		o.gains[i] = 1
	}
	return o
}

// run executes every iteration of the schedule.
func (o *optimizer) run() {
	for iter := 0; iter < o.cfg.MaxIter; iter++ {
		o.step(iter)
	}
}

// step performs one iteration: gradient, gains, velocity, position,
// re-centering, then the schedule switches and periodic cost report.
func (o *optimizer) step(iter int) {
	cfg := o.cfg
	o.obj.gradient(o.y, o.dY)

	for i, g := range o.dY {
		if sign(g) != sign(o.uY[i]) {
			o.gains[i] += 0.2
		} else {
			o.gains[i] *= 0.8
		}
		o.gains[i] = max(o.gains[i], cfg.MinGain)
	}

	for i := range o.uY {
		o.uY[i] = o.momentum*o.uY[i] - cfg.LearningRate*o.gains[i]*o.dY[i]
		o.y[i] += o.uY[i]
	}

	zeroMean(o.y, o.n, o.dims)

	if iter == cfg.StopLyingIter {
		o.obj.affinity().Scale(1 / cfg.Exaggeration)
	}
	if iter == cfg.MomentumSwitchIter {
		o.momentum = cfg.FinalMomentum
	}

	last := iter == cfg.MaxIter-1
	if iter > 0 && (iter%cfg.ReportEvery == 0 || last) {
		o.lastCost = o.obj.cost(o.y)
		o.costIter = iter
		o.reporter.Progress(iter, o.lastCost)
	}
}

// finalCost returns the cost of the current embedding, reusing the last
// periodic evaluation when it is up to date.
func (o *optimizer) finalCost() float64 {
	if o.costIter == o.cfg.MaxIter-1 {
		return o.lastCost
	}
	return o.obj.cost(o.y)
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// zeroMean subtracts the per-column mean from flat row-major x.
func zeroMean(x []float64, n, dims int) {
	if n == 0 {
		return
	}
	mean := make([]float64, dims)
	for i := 0; i < n; i++ {
		for d := 0; d < dims; d++ {
			mean[d] += x[i*dims+d]
		}
	}
	for d := range mean {
		mean[d] /= float64(n)
	}
	for i := 0; i < n; i++ {
		for d := 0; d < dims; d++ {
			x[i*dims+d] -= mean[d]
		}
	}
}
