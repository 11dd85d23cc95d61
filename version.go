package sluice

// Version is the release version. Overridden at build time via
// -ldflags "-X github.com/aretw0/sluice.Version=...".
var Version = "0.1.0-dev"
