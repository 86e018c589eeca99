// Package jobs contains the periodic sweeps over all patients and the scheduler running them.
package jobs

import (
	"context"
	"time"

	"github.com/tidepool-org/caretrack/patients"
)

// Job is a sweep over all patients
type Job interface {
	Name() string
	Run(ctx context.Context) (Result, error)
}

// Result summarizes a sweep. Failed patients are logged and do not abort the sweep.
type Result struct {
	Date     string `json:"date"`
	Patients int    `json:"patients"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeUpdated
)

// sweep applies fn to every patient, counting outcomes. Only enumeration failures and
// the expiry of ctx end the sweep early.
func sweep(ctx context.Context, repo patients.Repository, result *Result, fn func(ctx context.Context, patient patients.Patient) (outcome, error), onError func(patient patients.Patient, err error)) error {
	return patients.ForEach(ctx, repo, func(patient patients.Patient) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		result.Patients++
		o, err := fn(ctx, patient)
		switch {
		case err != nil:
			result.Failed++
			onError(patient, err)
		case o == outcomeUpdated:
			result.Updated++
		default:
			result.Skipped++
		}
		return nil
	})
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
