// Package config defines the format-agnostic run configuration of talkbot
// together with the Loader interface implemented by the format-specific
// packages (hclconfig, yamlconfig).
//
// A Model only carries what a file actually set; zero values mean "not
// configured" and leave the built-in defaults or command-line flags in
// charge.
package config
