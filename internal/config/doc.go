// Package config provides the supervisor's settings: compiled-in defaults,
// the optional YAML configuration file, its discovery through the XDG base
// directories, and validation.
package config
