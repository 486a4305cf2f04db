// Package config holds pcaplens configuration: CLI-populated settings,
// the optional .pcaplens YAML file, defaults, validation, and XDG
// directory resolution.
package config
