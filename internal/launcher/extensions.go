package launcher

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/pointy-labs/pointy/internal/extension"
	"github.com/pointy-labs/pointy/internal/manifest"
	"github.com/pointy-labs/pointy/internal/metrics"
	"github.com/pointy-labs/pointy/internal/prefs"
	"github.com/pointy-labs/pointy/internal/registry"
)

// List enumerates installed extensions under the current preferences.
func (s *Service) List() ([]extension.Info, error) {
	p, err := s.prefs.Get()
	if err != nil {
		return nil, err
	}
	return s.store.Enumerate(p)
}

// Active returns the enabled extensions in display order.
func (s *Service) Active() ([]extension.Info, error) {
	infos, err := s.List()
	if err != nil {
		return nil, err
	}
	return extension.Enabled(infos), nil
}

// SearchInstalled fuzzy-filters the installed extensions.
func (s *Service) SearchInstalled(query string) ([]extension.Info, error) {
	infos, err := s.List()
	if err != nil {
		return nil, err
	}
	return registry.SearchInstalled(query, infos), nil
}

// SearchOnline fuzzy-searches the online index.
func (s *Service) SearchOnline(ctx context.Context, query string) ([]registry.Match, error) {
	list, err := s.registry.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return registry.Search(query, list), nil
}

// Online returns the online index, cached.
func (s *Service) Online(ctx context.Context) ([]manifest.Manifest, error) {
	return s.registry.Fetch(ctx)
}

// Install resolves ref to a manifest and installs its latest release for
// this platform. ref is an index id or an http(s) URL of a manifest. A newly
// installed extension is enabled. Once started, an install runs to
// completion even if ctx is cancelled.
func (s *Service) Install(ctx context.Context, ref string) (*manifest.Release, error) {
	start := time.Now()
	release, err := s.install(context.WithoutCancel(ctx), ref)
	s.recorder.ObserveInstall(metrics.Result(err), time.Since(start))
	return release, err
}

func (s *Service) install(ctx context.Context, ref string) (*manifest.Release, error) {
	m, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	release, err := s.updater.Install(ctx, *m)
	if err != nil {
		return nil, err
	}

	if _, err := s.prefs.Update(func(p *prefs.Preferences) error {
		p.Enable(m.ID)
		return nil
	}); err != nil {
		return release, err
	}

	s.Notify(ctx)
	return release, nil
}

func (s *Service) resolve(ctx context.Context, ref string) (*manifest.Manifest, error) {
	if strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return s.updater.Fetcher().FetchManifest(ctx, ref)
	}
	m, err := s.registry.Lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes an installed extension and forgets it in preferences. A
// kept library is closed first, under the extension's lock, so a running
// entry point finishes before its code is unmapped.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.delete(context.WithoutCancel(ctx), id)
	s.recorder.ObserveRemove(metrics.Result(err))
	return err
}

func (s *Service) delete(ctx context.Context, id string) error {
	if err := s.installer.Remove(id); err != nil {
		return err
	}
	if _, err := s.prefs.Update(func(p *prefs.Preferences) error {
		p.Forget(id)
		return nil
	}); err != nil {
		return err
	}
	s.Notify(ctx)
	return nil
}

// Toggle flips whether an installed extension is enabled and returns the
// new state.
func (s *Service) Toggle(ctx context.Context, id string) (bool, error) {
	if _, err := s.store.Get(id); err != nil {
		return false, err
	}
	change, err := s.prefs.Update(func(p *prefs.Preferences) error {
		p.Toggle(id)
		return nil
	})
	if err != nil {
		return false, err
	}
	if change.ExtensionsChanged() {
		s.Notify(ctx)
	}
	return change.After.IsEnabled(id), nil
}

// SetOrder replaces the display order. Every id must be installed.
func (s *Service) SetOrder(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := s.store.Get(id); err != nil {
			return err
		}
	}
	change, err := s.prefs.Update(func(p *prefs.Preferences) error {
		p.Ordered = slices.Clone(ids)
		return nil
	})
	if err != nil {
		return err
	}
	if change.ExtensionsChanged() {
		s.Notify(ctx)
	}
	return nil
}

// Preferences returns the current launcher preferences.
func (s *Service) Preferences() (prefs.Preferences, error) {
	return s.prefs.Get()
}

// UpdatePreferences replaces the launcher preferences and notifies when the
// enabled or ordered lists changed.
func (s *Service) UpdatePreferences(ctx context.Context, p prefs.Preferences) (prefs.Preferences, error) {
	change, err := s.prefs.Replace(p)
	if err != nil {
		return prefs.Preferences{}, err
	}
	if change.ExtensionsChanged() {
		s.Notify(ctx)
	}
	return change.After, nil
}

// Run loads extension id and calls its entry point.
func (s *Service) Run(id string) error {
	start := time.Now()
	err := s.loader.Run(id)
	s.recorder.ObserveRun(metrics.Result(err), time.Since(start))
	if err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("extension run failed")
	}
	return err
}

// ReadIcon returns the SVG icon of an installed extension.
func (s *Service) ReadIcon(id string) (string, error) {
	return s.store.ReadIcon(id)
}
