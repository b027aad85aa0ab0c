//go:build mage

package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups the test targets.
type Test mg.Namespace

const defaultRedisAddr = "localhost:6379"

// All runs every test in the module.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Unit runs tests, optionally narrowed with --run <regexp> and
// --pkg <pattern>.
//
// Example: mage test:unit --pkg ./pkg/entity/... --run Permission
func (Test) Unit() error {
	fs := flag.NewFlagSet("test:unit", flag.ContinueOnError)
	run := fs.String("run", "", "only run tests matching this regexp")
	pkg := fs.String("pkg", "./...", "package pattern")
	parseTargetFlags(fs)

	args := []string{"test"}
	if *run != "" {
		args = append(args, "-run", *run)
	}
	return sh.RunV(binGo, append(args, *pkg)...)
}

// Race runs every test with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Redis runs the metadata cache tests against the server at REDIS_ADDR,
// defaulting to localhost:6379.
func (Test) Redis() error {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = defaultRedisAddr
	}
	env := map[string]string{"REDIS_ADDR": addr}
	return sh.RunWithV(env, binGo, "test", "-count=1", "-run", "Redis", "./internal/metacache/...")
}

// Cover writes a coverage profile to bin/cover.out and prints the summary.
func (Test) Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, "cover.out")
	if err := sh.RunV(binGo, "test", "-coverprofile", profile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", profile)
}
