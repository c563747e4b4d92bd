// Package config manages the gitkey user configuration.
//
// Settings live in a JSON file (see DefaultPath). A few of them can be
// overridden per invocation through GITKEY_* environment variables.
package config
