package launcher

import (
	"context"
	"time"

	"github.com/pointy-labs/pointy/internal/updater"
)

// UpdateAll installs every available update. Observers are notified once,
// after the whole batch. The batch is not cancellable: it runs to
// completion even if ctx is cancelled.
func (s *Service) UpdateAll(ctx context.Context) (*updater.Report, error) {
	report, err := s.updater.UpdateAll(context.WithoutCancel(ctx))
	s.record(report)
	return report, err
}

// CheckUpdates reports which extensions have a newer release.
func (s *Service) CheckUpdates(ctx context.Context) (*updater.Report, error) {
	return s.updater.CheckAll(ctx)
}

// UpdateIfStale runs UpdateAll when the last recorded run is older than the
// auto-update interval.
func (s *Service) UpdateIfStale(ctx context.Context) (bool, *updater.Report, error) {
	ran, report, err := s.updater.RunIfStale(context.WithoutCancel(ctx), s.paths.UpdateStatePath, s.settings.AutoUpdateInterval)
	s.record(report)
	return ran, report, err
}

// AutoUpdate keeps extensions current until ctx is cancelled. It does
// nothing when the auto-update interval is zero.
func (s *Service) AutoUpdate(ctx context.Context) {
	interval := s.settings.AutoUpdateInterval
	if interval <= 0 {
		return
	}
	every := autoUpdateCheckEvery
	if every > interval {
		every = interval
	}

	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		if _, _, err := s.UpdateIfStale(ctx); err != nil {
			s.logger.Error().Err(err).Msg("automatic update failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

func (s *Service) record(report *updater.Report) {
	if report == nil {
		return
	}
	for _, r := range report.Results {
		s.recorder.ObserveUpdate(string(r.Status))
	}
}
