// Package manifest handles the JSON documents of the extension lifecycle:
// the per-extension manifest.json, the latest-release descriptor fetched
// from a manifest's latest_url, and the online registry index. Every
// document is validated against an embedded JSON Schema before it is
// decoded into its typed form.
package manifest
