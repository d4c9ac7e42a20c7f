// Package buildinfo holds the version/firmware string reported as the node
// descriptive JSON's "firmware" and by `secopd --version`, set at link time
// via -ldflags. The *IDN? reply is a fixed string and does not include it.
package buildinfo

// Version is overwritten at build time, e.g.:
//
//	go build -ldflags "-X github.com/nabbar/secop/internal/buildinfo.Version=1.3.0"
var Version = "dev"
