// Package textutil provides filesystem-safe naming helpers.
//
// Tokens derived from script names, project directories, and URLs end up as
// directory names under the environment base and download directories, so
// every helper here guarantees output free of path separators and characters
// that are illegal on any supported operating system. Accented characters are
// folded to their ASCII base form rather than dropped.
package textutil
