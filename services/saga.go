package services

import (
	"context"
	"log"
	"time"

	"fastingFriendsAPI/internal/apperr"
)

// sagaStep is one remote write. compensate undoes it and may be nil when the
// write has nothing to roll back.
type sagaStep struct {
	name       string
	do         func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// saga runs steps in order. When a step fails, the compensations of the steps
// that already succeeded run in reverse order. Compensation failures are
// logged and never replace the original error.
type saga struct {
	name  string
	steps []sagaStep
}

const compensationTimeout = 5 * time.Second

func (s *saga) run(ctx context.Context) error {
	for i, step := range s.steps {
		err := step.do(ctx)
		if err == nil {
			continue
		}
		log.Printf("%s: step %q failed: %v", s.name, step.name, err)
		s.compensate(ctx, i)
		return apperr.Write(step.name, err)
	}
	return nil
}

func (s *saga) compensate(ctx context.Context, failed int) {
	// compensation must still run when the request that triggered it is gone
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	for j := failed - 1; j >= 0; j-- {
		step := s.steps[j]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(cctx); err != nil {
			log.Printf("%s: compensation for %q failed: %v", s.name, step.name, err)
			sagaCompensations.WithLabelValues(step.name, "failed").Inc()
			continue
		}
		sagaCompensations.WithLabelValues(step.name, "ok").Inc()
	}
}
