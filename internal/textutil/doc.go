// Package textutil provides text processing utilities for slugs, display
// names, and filename sanitization.
//
// The primary use cases are:
//   - Slugifying show names into the purpose token embedded in recording
//     filenames
//   - Deriving human-readable display names back from slugs
//   - Sanitizing filenames and path segments for safe filesystem use
package textutil
