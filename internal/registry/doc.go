// Package registry reads the online extension index: a JSON array of
// manifests served at registry_url. The index is cached under the data
// directory and searched with fuzzy matching.
package registry
