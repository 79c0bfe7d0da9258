package launcher

import (
	"context"
	"net/http"
	"time"

	"github.com/pointy-labs/pointy/internal/branding"
	"github.com/pointy-labs/pointy/internal/config"
	"github.com/pointy-labs/pointy/internal/extension"
	"github.com/pointy-labs/pointy/internal/loader"
	"github.com/pointy-labs/pointy/internal/metrics"
	"github.com/pointy-labs/pointy/internal/notify"
	"github.com/pointy-labs/pointy/internal/platform"
	"github.com/pointy-labs/pointy/internal/prefs"
	"github.com/pointy-labs/pointy/internal/registry"
	"github.com/pointy-labs/pointy/internal/updater"
	"github.com/pointy-labs/pointy/internal/userdata"
	"github.com/pointy-labs/pointy/internal/watch"
	"github.com/rs/zerolog"
)

// autoUpdateCheckEvery is how often the auto-updater looks at the update
// state; a run only happens once the state is older than the interval.
const autoUpdateCheckEvery = 15 * time.Minute

// Paths locates the on-disk state the service works with.
type Paths struct {
	ExtensionsRoot    string
	PreferencesPath   string
	RegistryCachePath string
	UpdateStatePath   string
}

// DefaultPaths resolves paths from the data directory layout.
func DefaultPaths() Paths {
	return Paths{
		ExtensionsRoot:    userdata.GetExtensionsRoot(),
		PreferencesPath:   userdata.GetPreferencesPath(),
		RegistryCachePath: userdata.GetRegistryCachePath(),
		UpdateStatePath:   userdata.GetUpdateStatePath(),
	}
}

// VersionInfo is the build identity injected via ldflags.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Service is the launcher's application state.
type Service struct {
	paths    Paths
	settings config.Settings
	logger   zerolog.Logger
	version  VersionInfo

	httpClient  *http.Client
	opener      loader.Opener
	platformKey func() string
	recorder    metrics.Recorder
	prom        *metrics.Prom
	sinks       []notify.Sink

	prefs     *prefs.Store
	store     *extension.Store
	locks     *extension.Locks
	installer *extension.Installer
	updater   *updater.Updater
	loader    *loader.Loader
	notifier  *notify.Notifier
	hub       *notify.Hub
	registry  *registry.Client
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger handed to every component.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithHTTPClient sets the client used for the registry and releases.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.httpClient = c }
}

// WithOpener replaces the native library backend (useful for testing).
func WithOpener(open loader.Opener) Option {
	return func(s *Service) { s.opener = open }
}

// WithPlatformKey overrides the host platform key.
func WithPlatformKey(key func() string) Option {
	return func(s *Service) { s.platformKey = key }
}

// WithMetrics replaces the default Prometheus recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithSink adds an observer of extensions-updated events next to the
// websocket hub and the log.
func WithSink(sink notify.Sink) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sink) }
}

// WithVersion sets the build identity reported by Version.
func WithVersion(v VersionInfo) Option {
	return func(s *Service) { s.version = v }
}

// New opens the preferences file and wires every component.
func New(paths Paths, settings config.Settings, opts ...Option) (*Service, error) {
	s := &Service{
		paths:       paths,
		settings:    settings,
		logger:      zerolog.Nop(),
		version:     VersionInfo{Version: "dev", Commit: "unknown", Date: "unknown"},
		platformKey: platform.Current,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: settings.HTTPTimeout}
	}
	if s.recorder == nil {
		s.prom = metrics.NewProm(branding.CLIName())
		s.recorder = s.prom
	} else if p, ok := s.recorder.(*metrics.Prom); ok {
		s.prom = p
	}

	store, err := prefs.Open(paths.PreferencesPath)
	if err != nil {
		return nil, err
	}
	s.prefs = store

	s.locks = extension.NewLocks()
	s.store = extension.NewStore(paths.ExtensionsRoot,
		extension.WithStoreLogger(s.component("store")))
	loaderOpts := []loader.Option{
		loader.WithLocks(s.locks),
		loader.WithKeepLoaded(settings.KeepLoaded),
		loader.WithLogger(s.component("loader")),
	}
	if s.opener != nil {
		loaderOpts = append(loaderOpts, loader.WithOpener(s.opener))
	}
	s.loader = loader.New(paths.ExtensionsRoot, loaderOpts...)

	// The installer closes a kept library under the extension's lock before
	// its directory is replaced or removed.
	s.installer = extension.NewInstaller(paths.ExtensionsRoot,
		extension.WithLocks(s.locks),
		extension.WithRelease(s.loader.Unload),
		extension.WithInstallerLogger(s.component("installer")))

	s.hub = notify.NewHub(s.component("hub"))
	notifyOpts := []notify.Option{
		notify.WithSink(s.hub),
		notify.WithSink(notify.LogSink(s.component("notify"))),
		notify.WithLogger(s.component("notify")),
	}
	for _, sink := range s.sinks {
		notifyOpts = append(notifyOpts, notify.WithSink(sink))
	}
	s.notifier = notify.New(s.List, notifyOpts...)

	s.updater = updater.New(inventory{s}, s.installer,
		updater.WithHTTPClient(s.httpClient),
		updater.WithNotifier(s),
		updater.WithConcurrency(settings.UpdateConcurrency),
		updater.WithPlatformKey(s.platformKey),
		updater.WithLogger(s.component("updater")))

	s.registry = registry.NewClient(settings.RegistryURL,
		registry.WithHTTPClient(s.httpClient),
		registry.WithCachePath(paths.RegistryCachePath),
		registry.WithMaxAge(settings.IndexMaxAge),
		registry.WithLogger(s.component("registry")))

	return s, nil
}

func (s *Service) component(name string) zerolog.Logger {
	return s.logger.With().Str("component", name).Logger()
}

// Paths returns the on-disk locations in use.
func (s *Service) Paths() Paths { return s.paths }

// Settings returns the application settings the service was built with.
func (s *Service) Settings() config.Settings { return s.settings }

// Hub returns the websocket hub carrying extensions-updated events.
func (s *Service) Hub() *notify.Hub { return s.hub }

// MetricsHandler serves the Prometheus registry, or nil when metrics are
// not backed by Prometheus.
func (s *Service) MetricsHandler() http.Handler {
	if s.prom == nil {
		return nil
	}
	return s.prom.Handler()
}

// Version returns the build identity.
func (s *Service) Version() VersionInfo { return s.version }

// Notify publishes the current extension list to every observer. It runs
// after a change has been made, so it ignores cancellation of ctx.
func (s *Service) Notify(context.Context) {
	if _, err := s.notifier.Publish(); err != nil {
		s.logger.Error().Err(err).Msg("could not refresh extension list")
		return
	}
	s.recorder.IncNotify()
}

// Watch re-notifies whenever the extensions root changes on disk until ctx
// is cancelled.
func (s *Service) Watch(ctx context.Context) error {
	w, err := watch.New(s.paths.ExtensionsRoot, s.Notify, watch.WithLogger(s.component("watch")))
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// Close releases every cached library and disconnects websocket clients.
func (s *Service) Close() error {
	s.hub.Close()
	return s.loader.Close()
}

// inventory feeds the updater the enumeration under current preferences.
type inventory struct{ s *Service }

func (i inventory) Installed() ([]extension.Info, error) { return i.s.List() }
