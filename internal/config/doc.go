// Package config manages kickstart settings: the default language per
// component kind, an optional user template directory, the number of
// components generated concurrently, force mode and the log level.
//
// Settings come from built-in defaults, ~/.kickstart/config.yaml, a
// .kickstart.yaml in the working directory and KICKSTART_* environment
// variables, in increasing priority. "kickstart config set" only ever
// writes the user file.
package config
