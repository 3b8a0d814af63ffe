package config

// BuildVersion is set at build time with -ldflags "-X .../internal/config.BuildVersion=<version>"
var BuildVersion = "0.0.0-dev"
