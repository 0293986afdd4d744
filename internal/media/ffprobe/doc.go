// Package ffprobe wraps the ffprobe binary to inspect media containers before
// splitting them.
package ffprobe
