// Package render builds the immutable key/value context for one component
// and substitutes {{identifier}} placeholders in template bodies and output
// path patterns.
//
// Rendering is strict and single-pass: an identifier with no value in the
// context is an error naming the key, and substituted values are never
// expanded again. Text between double braces that is not a bare identifier,
// such as Helm's {{ .Values.image }} or a GitHub Actions ${{ github.sha }},
// is passed through untouched. A placeholder preceded by a backslash renders
// literally without the backslash.
package render
