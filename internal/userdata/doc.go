// Package userdata manages the ~/.pointy/ data directory: the installed
// extensions root, preferences.json, the registry index cache, and the
// auto-update state file. It handles path resolution, first-run
// initialization, and the doctor health check.
package userdata
