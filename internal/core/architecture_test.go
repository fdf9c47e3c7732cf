package core

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyCorePackageImportsPersistenceDrivers ensures that concrete storage
// drivers stay behind OpenPersistentStore. Other packages must depend on the
// domain.PersistentStore interface instead of importing drivers directly.
func TestOnlyCorePackageImportsPersistenceDrivers(t *testing.T) {
	driverPrefix := "clinicboard/internal/infra/persistence"
	allowedPrefixes := []string{
		"clinicboard/internal/core",
		"clinicboard/cmd",
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "clinicboard/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})

	for _, pkg := range pkgs {
		if hasAnyPrefix(pkg.PkgPath, allowedPrefixes) {
			continue
		}
		if strings.HasPrefix(pkg.PkgPath, driverPrefix) {
			continue
		}
		for importPath := range pkg.Imports {
			if importPath == driverPrefix || strings.HasPrefix(importPath, driverPrefix+"/") {
				pos := filepath.Join(pkg.PkgPath, "...")
				seen[pos+": "+importPath] = struct{}{}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import of persistence driver: %s", v)
		}
		t.Fatalf("found %d forbidden imports of persistence drivers", len(violations))
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
