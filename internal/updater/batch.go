package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pointy-labs/pointy/internal/apperr"
	"github.com/pointy-labs/pointy/internal/manifest"
	"golang.org/x/sync/errgroup"
)

// Status is the outcome of one extension's update task.
type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUpToDate  Status = "up_to_date"
	StatusAvailable Status = "available"
	StatusFailed    Status = "failed"
)

// Result records what happened to one extension.
type Result struct {
	ID       string        `json:"id"`
	From     string        `json:"from"`
	To       string        `json:"to,omitempty"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Kind     string        `json:"kind,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Report summarizes a batch.
type Report struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Results  []Result      `json:"results"`
}

// Count returns how many results have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Failures returns the failed results.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// UpdateAll installs the latest release of every installed extension that
// has a newer version. Tasks run concurrently up to the configured limit.
// A failing extension is recorded in the report and never stops its
// siblings. The notifier runs exactly once after every task has finished.
// The returned error is non-nil only when the inventory cannot be read or a
// task could not be joined.
func (u *Updater) UpdateAll(ctx context.Context) (*Report, error) {
	report, err := u.run(ctx, false)
	if report != nil && u.notifier != nil {
		u.notifier.Notify(ctx)
	}
	return report, err
}

// CheckAll reports which extensions have a newer release for this platform
// without installing anything.
func (u *Updater) CheckAll(ctx context.Context) (*Report, error) {
	return u.run(ctx, true)
}

func (u *Updater) run(ctx context.Context, checkOnly bool) (*Report, error) {
	installed, err := u.inventory.Installed()
	if err != nil {
		return nil, fmt.Errorf("listing installed extensions: %w", err)
	}

	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Results: make([]Result, len(installed)),
	}
	log := u.logger.With().Str("run", report.RunID).Logger()
	log.Info().Int("extensions", len(installed)).Bool("check_only", checkOnly).Msg("update run started")

	var g errgroup.Group
	g.SetLimit(u.concurrency)
	for i, info := range installed {
		m := info.Manifest
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					report.Results[i] = Result{ID: m.ID, From: m.VersionString(), Status: StatusFailed, Error: fmt.Sprint(r)}
					err = fmt.Errorf("update task for %s panicked: %v", m.ID, r)
				}
			}()
			report.Results[i] = u.updateOne(ctx, m, checkOnly)
			return nil
		})
	}
	joinErr := g.Wait()
	report.Duration = time.Since(report.Started)

	log.Info().
		Int("updated", report.Count(StatusUpdated)).
		Int("available", report.Count(StatusAvailable)).
		Int("up_to_date", report.Count(StatusUpToDate)).
		Int("failed", report.Count(StatusFailed)).
		Dur("took", report.Duration).
		Msg("update run finished")

	if joinErr != nil {
		return report, joinErr
	}
	return report, nil
}

// updateOne runs the update pipeline for a single extension.
func (u *Updater) updateOne(ctx context.Context, m manifest.Manifest, checkOnly bool) Result {
	start := time.Now()
	res := Result{ID: m.ID, From: m.VersionString()}
	log := u.logger.With().Str("id", m.ID).Str("old", res.From).Logger()

	fail := func(err error) Result {
		res.Status = StatusFailed
		res.Err = err
		res.Error = apperr.Message(err)
		res.Kind = apperr.KindOf(err).String()
		res.Duration = time.Since(start)
		log.Error().Err(err).Str("status", string(StatusFailed)).Msg("update failed")
		return res
	}

	latest, err := u.fetcher.FetchLatest(ctx, m.LatestURL)
	if err != nil {
		return fail(err)
	}
	res.To = latest.Version.String()

	if !IsNewer(m.Version, latest.Version) {
		res.Status = StatusUpToDate
		res.Duration = time.Since(start)
		log.Debug().Str("new", res.To).Str("status", string(res.Status)).Msg("extension is up to date")
		return res
	}

	asset, err := u.selectAsset(m.ID, latest)
	if err != nil {
		return fail(err)
	}

	if checkOnly {
		res.Status = StatusAvailable
		res.Duration = time.Since(start)
		log.Info().Str("new", res.To).Str("status", string(res.Status)).Msg("update available")
		return res
	}

	if err := u.download(ctx, m.ID, asset); err != nil {
		return fail(err)
	}

	res.Status = StatusUpdated
	res.Duration = time.Since(start)
	log.Info().Str("new", res.To).Str("status", string(res.Status)).Dur("took", res.Duration).Msg("extension updated")
	return res
}

// Install fetches the latest release of m and installs it regardless of
// the version currently on disk. Errors are returned unchanged.
func (u *Updater) Install(ctx context.Context, m manifest.Manifest) (*manifest.Release, error) {
	latest, err := u.fetcher.FetchLatest(ctx, m.LatestURL)
	if err != nil {
		return nil, err
	}
	asset, err := u.selectAsset(m.ID, latest)
	if err != nil {
		return nil, err
	}
	if err := u.download(ctx, m.ID, asset); err != nil {
		return nil, err
	}
	u.logger.Info().Str("id", m.ID).Str("new", latest.Version.String()).Msg("extension installed from release")
	return latest, nil
}

func (u *Updater) selectAsset(id string, latest *manifest.Release) (manifest.Asset, error) {
	key := u.platformKey()
	asset, ok := latest.AssetFor(key)
	if !ok {
		return manifest.Asset{}, apperr.Newf(apperr.KindNoAssets, "update "+id, "no asset for %s (release has %v)", key, latest.Platforms())
	}
	return asset, nil
}

func (u *Updater) download(ctx context.Context, id string, asset manifest.Asset) error {
	payload, err := u.fetcher.FetchAsset(ctx, asset)
	if err != nil {
		return err
	}
	return u.installer.Install(id, payload, asset.Checksum)
}
