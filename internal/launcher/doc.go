// Package launcher is the application service. It owns the preferences
// store, the extension store and installer, the updater, the plugin loader
// and the notifier, and exposes every user-facing operation on top of them.
// Every operation that changes the set or order of extensions publishes an
// extensions-updated event.
package launcher
