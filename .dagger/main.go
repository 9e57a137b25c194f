// Scout CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/scout/internal/dagger"
)

// Scout is the main module for the scout CI/CD pipeline
type Scout struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Scout CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", ".scout", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Scout {
	return &Scout{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted. sqlite-vec
// links through mattn/go-sqlite3, so every build and test needs CGO.
func (s *Scout) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", s.Source)
}

// Test runs the scout unit tests with ginkgo
func (s *Scout) Test(ctx context.Context) (string, error) {
	return s.goContainer().
		WithExec([]string{"go", "run", "github.com/onsi/ginkgo/v2/ginkgo", "-r", "--randomize-all", "--race"}).
		Stdout(ctx)
}
