// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// copyright_header checks that the Go files of the module carry the license header, and optionally adds it.
//
// Usage:
//
//	go run ./internal/cmd/copyright_header -check ./...
//	go run ./internal/cmd/copyright_header ./pkg ./cmd
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagProject = flag.String("project", "GoMLX", "Project name to use in the copyright header.")
	flagCheck   = flag.Bool("check", false, "Only report files missing the header, and exit with an error if any.")
)

// headerScanLines is the number of lines searched for an existing header.
const headerScanLines = 50

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [path ...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnumerates Go files and adds a copyright header if missing.\n")
		fmt.Fprintf(os.Stderr, "Default path is current directory.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	header := fmt.Sprintf("// Copyright 2023-2026 The %s Authors. SPDX-License-Identifier: Apache-2.0\n\n", *flagProject)
	roots := flag.Args()
	if len(roots) == 0 {
		roots = []string{"."}
	}
	var missing int
	for _, root := range roots {
		root = strings.TrimSuffix(root, "/...")
		err := walkGoFiles(root, func(path string) error {
			changed, err := processFile(path, header, !*flagCheck)
			if changed {
				missing++
			}
			return err
		})
		if err != nil {
			klog.Fatalf("Error walking path %q: %+v", root, err)
		}
	}
	if *flagCheck && missing > 0 {
		klog.Errorf("%d files missing the copyright header", missing)
		os.Exit(1)
	}
}

// walkGoFiles calls fn for every Go file under root, skipping hidden directories, vendor/, the
// reference directories starting with "_" and generated files (prefixed with "gen_").
func walkGoFiles(root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") || strings.HasPrefix(name, "gen_") {
			return nil
		}
		return fn(path)
	})
}

// processFile reports whether the file is missing the header, and adds it if write is true.
func processFile(path, header string, write bool) (missing bool, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %q", path)
	}
	newContent, missing := addHeader(string(content), header)
	if !missing {
		return false, nil
	}
	if !write {
		klog.Infof("Missing header: %s", path)
		return true, nil
	}
	klog.Infof("Adding header to %s", path)
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		return true, errors.Wrapf(err, "failed to write %q", path)
	}
	return true, nil
}

// addHeader returns the content with the header added, and whether it was missing.
// If the file has build tags, the header goes after them, separated by an empty line.
func addHeader(content, header string) (string, bool) {
	lines := strings.Split(content, "\n")
	lastBuildTagIndex := -1
	for i, line := range lines[:min(len(lines), headerScanLines)] {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "// Copyright") {
			return content, false
		}
		if strings.HasPrefix(trimmed, "//go:build") || strings.HasPrefix(trimmed, "// +build") {
			lastBuildTagIndex = i
		}
	}
	if lastBuildTagIndex == -1 {
		return header + content, true
	}
	prefix := strings.Join(lines[:lastBuildTagIndex+1], "\n")
	suffix := strings.TrimLeft(strings.Join(lines[lastBuildTagIndex+1:], "\n"), "\n")
	return prefix + "\n\n" + header + suffix, true
}
