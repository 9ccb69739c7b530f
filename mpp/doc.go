// Package mpp models the media-processing engine that performs the actual
// pixel transform behind an mjpeg session.
//
// The Backend interface captures the capability surface of a hardware codec
// engine: creating codec contexts, initializing them for a coding type and
// direction, acquiring buffer groups, and moving frames and packets through
// a context with put/get operations. Two implementations ship with the
// package:
//
//   - SoftJPEG performs real baseline JPEG coding in software and is the
//     default backend for sessions.
//   - Stub copies bytes through unchanged, standing in for codec hardware
//     in deterministic tests.
//
// A production hardware backend implements the same interfaces and is
// injected at session creation without touching the session layer.
package mpp
