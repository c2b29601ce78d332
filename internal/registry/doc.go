// Package registry indexes template sources by component kind, target
// language and optional extension, and resolves the ordered set of
// template descriptors to render for one component request.
//
// Sources are searched in priority order: a user template directory
// configured in settings shadows the builtin catalog embedded in the binary.
// A registry is built once with Load and is read-only afterwards, so it is
// safe for concurrent use by the generator.
package registry
