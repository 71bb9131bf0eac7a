package anneal

// Observer receives engine events. OnStep runs inside the search loop and
// must be cheap.
type Observer interface {
	OnStep(step int, temperature, cost float64, accepted bool)
	OnFinish(res *Result)
}

// Observers fans events out to several observers, skipping nils.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type multiObserver []Observer

func (m multiObserver) OnStep(step int, temperature, cost float64, accepted bool) {
	for _, o := range m {
		o.OnStep(step, temperature, cost, accepted)
	}
}

func (m multiObserver) OnFinish(res *Result) {
	for _, o := range m {
		o.OnFinish(res)
	}
}

// ProgressFunc is called with the current step, temperature and cost.
type ProgressFunc func(step int, temperature, cost float64)

// Progress returns an Observer that calls fn every n steps and once more
// when the run finishes.
func Progress(every int, fn ProgressFunc) Observer {
	if every < 1 {
		every = 1
	}
	return &progressObserver{every: every, fn: fn}
}

type progressObserver struct {
	every int
	fn    ProgressFunc
}

func (p *progressObserver) OnStep(step int, temperature, cost float64, _ bool) {
	if step%p.every == 0 {
		p.fn(step, temperature, cost)
	}
}

func (p *progressObserver) OnFinish(res *Result) {
	p.fn(res.Steps, res.Temperature, res.FinalCost)
}
