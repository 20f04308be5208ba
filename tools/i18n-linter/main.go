// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the translation files for consistency. It scans the Go
// sources for i18n.T() calls, compares them against internal/i18n/locales
// and reports keys that are used but undefined, defined but unused, or
// missing from a secondary locale.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
)

var usageRe = regexp.MustCompile(`i18n\.T\("([^"]+)"`)

func main() {
	used, err := usedKeys(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "scanning sources: %v\n", err)
		os.Exit(1)
	}

	primary, err := localeKeys(filepath.Join(localesDir, primaryLocale))
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading %s: %v\n", primaryLocale, err)
		os.Exit(1)
	}

	failed := false

	undefined := difference(used, primary)
	if len(undefined) > 0 {
		failed = true
		fmt.Printf("keys used in code but missing from %s:\n", primaryLocale)
		for _, key := range undefined {
			fmt.Printf("  %s\n", key)
		}
	}

	orphaned := difference(primary, used)
	if len(orphaned) > 0 {
		fmt.Printf("keys in %s not used anywhere:\n", primaryLocale)
		for _, key := range orphaned {
			fmt.Printf("  %s\n", key)
		}
	}

	others, err := filepath.Glob(filepath.Join(localesDir, "*.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "listing locales: %v\n", err)
		os.Exit(1)
	}
	for _, file := range others {
		if filepath.Base(file) == primaryLocale {
			continue
		}
		secondary, err := localeKeys(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading %s: %v\n", file, err)
			os.Exit(1)
		}
		missing := difference(primary, secondary)
		if len(missing) > 0 {
			failed = true
			fmt.Printf("keys missing from %s:\n", filepath.Base(file))
			for _, key := range missing {
				fmt.Printf("  %s\n", key)
			}
		}
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("translation files are consistent")
}

// usedKeys scans all non-test .go files under root for i18n.T calls.
func usedKeys(root string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if name == "tools" || name == "_examples" || strings.HasPrefix(name, ".") && name != "." {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, match := range usageRe.FindAllStringSubmatch(string(content), -1) {
			keys[match[1]] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// localeKeys returns the flattened dot-separated keys of a locale file.
func localeKeys(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flatten("", data, keys)
	return keys, nil
}

func flatten(prefix string, node any, keys map[string]struct{}) {
	if m, ok := node.(map[string]any); ok {
		for k, v := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, v, keys)
		}
		return
	}
	if prefix != "" {
		keys[prefix] = struct{}{}
	}
}

// difference returns the sorted keys of a that are absent from b.
func difference(a, b map[string]struct{}) []string {
	var out []string
	for key := range a {
		if _, ok := b[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
