package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"**/*.ts", "main.ts", true},
		{"**/*.ts", "src/app/main.ts", true},
		{"**/*.ts", "main.js", false},
		{"**/*.ts", "src/main.tsx", false},
		{"src/**/*.tsx", "src/ui/button.tsx", true},
		{"src/**/*.tsx", "lib/ui/button.tsx", false},
		{"src/**/*.ts", "src/main.ts", true},
		{"**/*.d.ts", "types/api.d.ts", true},
		{"**/*.test.ts", "src/user.test.ts", true},
		{"**/*.test.ts", "src/user.ts", false},
		{"*.ts", "main.ts", true},
		{"*.ts", "src/main.ts", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MatchGlob(tc.pattern, tc.name),
			"pattern %q against %q", tc.pattern, tc.name)
	}
}

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("export {};\n"), 0o644))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.ts")
	writeFile(t, root, "src/app.ts")
	writeFile(t, root, "src/app.test.ts")
	writeFile(t, root, "src/view.tsx")
	writeFile(t, root, "readme.md")
	writeFile(t, root, "node_modules/pkg/index.ts")
	writeFile(t, root, ".hidden/secret.ts")

	s := New(root, []string{"**/*.ts", "**/*.tsx"}, []string{"**/*.test.ts"})
	files, err := s.Scan(context.Background())
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"main.ts", "src/app.ts", "src/view.tsx"}, paths)

	for _, f := range files {
		info, err := os.Stat(f.AbsPath)
		require.NoError(t, err)
		assert.False(t, info.IsDir())
	}
}

func TestScanCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.ts")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(root, []string{"**/*.ts"}, nil).Scan(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestScanEmptyWorkspace(t *testing.T) {
	files, err := New(t.TempDir(), []string{"**/*.ts"}, nil).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}
