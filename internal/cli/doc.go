// Package cli defines the Cobra command tree for the kickstart CLI. Each file
// in this package registers one top-level command (create, generate,
// templates, config, version) with the root command. Commands only parse
// flags, call the scaffold package and format its summary.
package cli
