package studiobridge

// Version is the release of the bridge. Overridden at build time with -ldflags "-X".
var Version = "0.2.0"
