// Package platform hides the permission differences between Unix and
// Windows when generated files are written. Windows has no Unix permission
// bits, so mode changes there are no-ops and executable bits are ignored.
package platform
