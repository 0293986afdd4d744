// Package venv owns the lifecycle of named isolated Python environments.
//
// Every tool or script that needs third-party packages gets one environment
// under a shared base directory, named deterministically from the script and
// its enclosing project. The Manager creates environments with `python -m
// venv`, installs requirements with the environment's own pip, and resolves
// the interpreter location, which differs between POSIX and Windows layouts.
//
// Creation and installation for one environment are serialized with a file
// lock so two concurrent invocations cannot corrupt a half-built directory.
// Existence is judged solely by the presence of the interpreter executable; a
// partially-created directory without one is re-created on the next request.
package venv
