// Package scaffold drives end-to-end generation for one or more component
// requests. It is the programmatic entry point behind the "kickstart create"
// and "kickstart generate" commands.
//
// Each request is validated, resolved against the template registry,
// rendered against its context and written by the materializer. Requests
// other than monorepos run concurrently; monorepos run afterwards because
// their layout lists the roots of every sibling generated in the same run.
// A failed component never stops the run: the Summary reports every
// component's outcome.
package scaffold
