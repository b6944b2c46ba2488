// Package testfixture writes small architecture directories for tests.
package testfixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Stakeholders, Concerns and Capabilities form a minimal clean architecture.
const (
	Stakeholders = `stakeholders:
  - id: STK-001
    name: Operations
  - id: STK-002
    name: Product
`
	Concerns = `concerns:
  - id: C-001
    name: Availability
    description: The service stays up.
    stakeholders: [STK-001]
    tags: [Business]
`
	Capabilities = `capabilities:
  - id: CAP-001
    name: Serve quotes
    description: Publishes quotes.
    addresses_concerns: [C-001]
`
)

// Files maps file names to contents.
type Files map[string]string

// Minimal returns the three mandatory files of a clean architecture.
func Minimal() Files {
	return Files{
		"stakeholders.yaml": Stakeholders,
		"concerns.yaml":     Concerns,
		"capabilities.yaml": Capabilities,
	}
}

// With returns a copy of f with the given files added or replaced.
func (f Files) With(extra Files) Files {
	out := make(Files, len(f)+len(extra))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Without returns a copy of f minus the named files.
func (f Files) Without(names ...string) Files {
	out := make(Files, len(f))
	for k, v := range f {
		out[k] = v
	}
	for _, n := range names {
		delete(out, n)
	}
	return out
}

// Architecture writes files into root/archID and returns root.
func Architecture(t *testing.T, root, archID string, files Files) string {
	t.Helper()
	dir := root
	if archID != "_root" {
		dir = filepath.Join(root, archID)
	}
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644), name)
	}
	return root
}

// Root creates a temporary specs root holding one architecture.
func Root(t *testing.T, archID string, files Files) string {
	t.Helper()
	return Architecture(t, t.TempDir(), archID, files)
}
