// Package materialize writes rendered files under a component root and
// enforces the destination conflict policy.
//
// A root that already holds entries, or any planned file that already
// exists, aborts the component before anything is written unless force is
// set. With force, colliding files are overwritten and everything else in
// the root is left alone. A failed write stops the component; files written
// before it stay in place.
package materialize
