package sync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/designersync/pkg/options"
)

func TestRunGolden(ttt *testing.T) {
	fixtures := "testdata/fixtures"
	tests := []struct {
		name string
		dir  string
	}{
		{name: "add, remove and retain fields", dir: "fields"},
		{name: "rename with new import", dir: "rename"},
	}
	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir, err := filepath.Abs(filepath.Join(fixtures, tt.dir))
			require.NoError(t, err)

			// writes stay in memory
			fsys := afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(afero.NewOsFs()), afero.NewMemMapFs())
			o := options.New(
				options.WithFile(filepath.Join(dir, "form.go")),
				options.WithPackagePath("example.com/app/ui"),
			)
			require.NoError(t, o.Normalize())
			jsbyt, _ := json.MarshalIndent(o, "", "  ")
			t.Logf("Options: %v", string(jsbyt))

			_, err = Run(fsys, o)
			require.NoError(t, err)

			got, err := afero.ReadFile(fsys, o.File)
			require.NoError(t, err)
			expectedBytes, err := os.ReadFile(filepath.Join(dir, "form.go.golden"))
			require.NoError(t, err)

			diff := cmp.Diff(string(expectedBytes), string(got))
			require.Emptyf(t, diff, "Run() mismatch (-want +got):\n%s", diff)
		})
	}
}
