// Package parser loads weft configuration files into config stores.
//
// The format is INI-like: [section] headers followed by name=value (or
// name:value) assignments, # comments, and blank lines. On top of that
// it supports:
//   - %include "target" directives spliced in from files or URLs
//   - backslash line continuation
//   - metacharacter escapes (\t \n \r \\ \<space> \uXXXX)
//   - ${ref} interpolation against earlier sections plus the env and
//     system pseudo-sections
//   - name -> value raw assignments that bypass all expansion
//
// Parsing is all or nothing: any error aborts the parse and no store is
// returned.
package parser
