package updater

import (
	"context"
	"net/http"

	"github.com/pointy-labs/pointy/internal/extension"
	"github.com/pointy-labs/pointy/internal/platform"
	"github.com/rs/zerolog"
)

// DefaultConcurrency bounds how many extensions update at once.
const DefaultConcurrency = 4

// Inventory lists the currently installed extensions.
type Inventory interface {
	Installed() ([]extension.Info, error)
}

// Installer writes a verified payload as extension id.
type Installer interface {
	Install(id string, payload []byte, checksum string) error
}

// Notifier is told when a batch may have changed the installed set.
type Notifier interface {
	Notify(ctx context.Context)
}

// Updater runs update checks and installs.
type Updater struct {
	inventory   Inventory
	installer   Installer
	fetcher     *Fetcher
	notifier    Notifier
	concurrency int
	platformKey func() string
	logger      zerolog.Logger
}

// Option configures an Updater.
type Option func(*Updater)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(u *Updater) {
		u.fetcher = NewFetcher(c)
	}
}

// WithNotifier sets the notifier invoked after each batch.
func WithNotifier(n Notifier) Option {
	return func(u *Updater) {
		u.notifier = n
	}
}

// WithConcurrency sets the worker pool size. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(u *Updater) {
		u.concurrency = max(n, 1)
	}
}

// WithPlatformKey overrides the platform key used to pick assets.
func WithPlatformKey(key func() string) Option {
	return func(u *Updater) {
		u.platformKey = key
	}
}

// WithLogger sets the updater's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(u *Updater) {
		u.logger = l
	}
}

// New creates an Updater over the given inventory and installer.
func New(inv Inventory, in Installer, opts ...Option) *Updater {
	u := &Updater{
		inventory:   inv,
		installer:   in,
		fetcher:     NewFetcher(nil),
		concurrency: DefaultConcurrency,
		platformKey: platform.Current,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Fetcher returns the fetcher used for release and asset downloads.
func (u *Updater) Fetcher() *Fetcher {
	return u.fetcher
}
