//go:build !linux

package camera

// Initialize finds and registers camera devices. Only Linux is supported.
func Initialize() {}
