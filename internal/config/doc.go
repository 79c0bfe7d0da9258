// Package config manages application settings stored at ~/.pointy/config.yaml
// and POINTY_* environment variables: where extensions live, where the
// online index is served from, how many updates run at once, and how the
// local interface server and logging behave.
package config
