//go:build !linux && !darwin

package cue

// No cue playback on this platform.

func Init()  {}
func Start() {}
func Stop()  {}
func Warn()  {}
