package loom

// Version is the loom release, overridden at build time via -ldflags.
var Version = "0.1.0"
