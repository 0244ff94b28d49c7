package record

import "github.com/iaserrat/pinglog/internal/probe"

// Throttle forwards only the first outcome of every run of equal outcomes.
// Each run counter wraps at its prescale, so a long run is re-recorded once
// every prescale samples. A prescale of 1 forwards everything.
type Throttle struct {
	Next            Recorder
	SuccessPrescale int
	FailurePrescale int

	successRun int
	failureRun int
}

func NewThrottle(next Recorder, successPrescale, failurePrescale int) *Throttle {
	return &Throttle{
		Next:            next,
		SuccessPrescale: max(successPrescale, 1),
		FailurePrescale: max(failurePrescale, 1),
	}
}

func (t *Throttle) Record(o probe.Outcome) error {
	run := &t.failureRun
	if o.Success {
		run = &t.successRun
	}

	if *run == 0 {
		if err := t.Next.Record(o); err != nil {
			return err
		}
	}

	if o.Success {
		t.successRun = wrap(t.successRun+1, t.SuccessPrescale)
		t.failureRun = 0
	} else {
		t.failureRun = wrap(t.failureRun+1, t.FailurePrescale)
		t.successRun = 0
	}
	return nil
}

func wrap(n, prescale int) int {
	if n >= prescale {
		return 0
	}
	return n
}
