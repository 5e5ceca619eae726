// Package testutil holds import guards that keep the facility's layers apart.
package testutil

import (
	"fmt"
	"go/parser"
	"go/token"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// Predicate reports whether an import path is off limits.
type Predicate func(importPath string) bool

// AnyOf matches when any of preds matches.
func AnyOf(preds ...Predicate) Predicate {
	return func(path string) bool {
		return slices.ContainsFunc(preds, func(p Predicate) bool { return p(path) })
	}
}

// PrefixForbidden matches import paths starting with one of prefixes.
func PrefixForbidden(prefixes ...string) Predicate {
	return func(path string) bool {
		return slices.ContainsFunc(prefixes, func(prefix string) bool { return strings.HasPrefix(path, prefix) })
	}
}

// DomainImportForbidden matches the facility domain package.
func DomainImportForbidden(path string) bool {
	return strings.HasSuffix(path, "/pkg/domain") || strings.Contains(path, "/pkg/domain@")
}

// InternalImportForbidden matches any path with an internal/ element.
func InternalImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/")
}

// IOImportForbidden matches standard library packages that reach the
// filesystem, the network or a database.
func IOImportForbidden(path string) bool {
	switch path {
	case "os", "os/exec", "io/fs", "net", "database/sql", "syscall":
		return true
	}
	return strings.HasPrefix(path, "net/")
}

// Violation is an import that matched a forbidden predicate.
type Violation struct {
	Import string
	File   string
}

func (v Violation) String() string {
	if v.File == "" {
		return v.Import
	}
	return fmt.Sprintf("%s (in %s)", v.Import, v.File)
}

// AssertNoDirectImports parses the non-test Go files in dir and fails if one
// of them imports a path matching forbidden. Build tags are ignored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	found, err := DirectImports(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	report(t, "direct import", reason, found)
}

// AssertNoTransitiveDependency runs `go list -deps pattern` and fails if any
// dependency matches forbidden.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(path string) bool, reason string) {
	t.Helper()
	found, out, err := TransitiveDependencies(pattern, forbidden)
	if err != nil {
		t.Fatalf("go list -deps %s: %v\n%s", pattern, err, out)
	}
	report(t, "transitive dependency", reason, found)
}

// DirectImports returns the forbidden imports of the non-test files in dir.
func DirectImports(dir string, forbidden func(importPath string) bool) ([]Violation, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var found []Violation
	for _, file := range files {
		name := filepath.Base(file)
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		parsed, err := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range parsed.Imports {
			path := strings.Trim(imp.Path.Value, "\"`")
			if forbidden(path) {
				found = append(found, Violation{Import: path, File: name})
			}
		}
	}
	return found, nil
}

var listDeps = func(pattern string) ([]byte, error) {
	return exec.Command("go", "list", "-deps", pattern).CombinedOutput()
}

// TransitiveDependencies returns the forbidden packages pattern depends on.
// The raw go list output is returned for diagnostics.
func TransitiveDependencies(pattern string, forbidden func(path string) bool) ([]Violation, []byte, error) {
	out, err := listDeps(pattern)
	if err != nil {
		return nil, out, err
	}
	var found []Violation
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" && forbidden(line) {
			found = append(found, Violation{Import: line})
		}
	}
	return found, out, nil
}

type fatalf interface {
	Fatalf(format string, args ...any)
}

func report(t fatalf, kind, reason string, found []Violation) {
	if len(found) == 0 {
		return
	}
	lines := make([]string, 0, len(found))
	for _, v := range found {
		lines = append(lines, v.String())
	}
	t.Fatalf("forbidden %s (%s):\n%s", kind, reason, strings.Join(lines, "\n"))
}
