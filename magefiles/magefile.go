//go:build mage

// Package main provides build targets for the hrentities project using Mage.
//
// Usage:
//
//	mage build             Compile hrctl to bin/
//	mage test:all          Run all tests
//	mage test:unit         Run tests, optionally filtered (--run, --pkg)
//	mage test:race         Run all tests with the race detector
//	mage test:redis        Run the metadata cache tests against a live Redis
//	mage test:cover        Write a coverage profile to bin/cover.out
//	mage lint              Run golangci-lint
//	mage clean             Remove build artifacts
//	mage install           Install hrctl to GOPATH/bin
//	mage stats             Print Go LOC and documentation word counts
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "hrctl"
	binaryDir  = "bin"
	cmdDir     = "./cmd/hrctl"

	versionVar = "github.com/mesh-intelligence/hrentities/internal/cli.Version"
)

// version returns HRCTL_VERSION, or the closest git tag without its "v".
// An empty result leaves the default compiled into the binary.
func version() string {
	if v := os.Getenv("HRCTL_VERSION"); v != "" {
		return v
	}
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(out, "v")
}

// Build compiles the hrctl binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if v := version(); v != "" {
		args = append(args, "-ldflags", fmt.Sprintf("-X %s=%s", versionVar, v))
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
