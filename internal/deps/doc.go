// Package deps declares and checks the external binaries pykit wraps.
package deps
