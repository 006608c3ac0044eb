// Package buildinfo exposes build-time information injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/recofeed-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/recofeed-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// GoVersion falls back to the running toolchain when not injected.
package buildinfo
