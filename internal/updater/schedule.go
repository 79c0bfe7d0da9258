package updater

import (
	"context"
	"time"
)

// RunIfStale runs UpdateAll when the state at statePath is older than
// maxAge, then records the run. It reports whether a run happened.
func (u *Updater) RunIfStale(ctx context.Context, statePath string, maxAge time.Duration) (bool, *Report, error) {
	state, err := LoadState(statePath)
	if err != nil {
		// A corrupt state file only means we update now.
		u.logger.Warn().Err(err).Msg("ignoring unreadable update state")
		state = nil
	}
	if !IsStale(state, maxAge) {
		return false, nil, nil
	}

	report, err := u.UpdateAll(ctx)
	if err != nil {
		return true, report, err
	}

	next := &State{
		CheckedAt: time.Now(),
		RunID:     report.RunID,
		Updated:   report.Count(StatusUpdated),
		Failed:    report.Count(StatusFailed),
	}
	if err := SaveState(statePath, next); err != nil {
		u.logger.Warn().Err(err).Msg("could not save update state")
	}
	return true, report, nil
}
