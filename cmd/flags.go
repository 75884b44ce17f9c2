package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/designersync/internal/designer"
	"github.com/cmmoran/designersync/pkg/options"
)

// configKey is the config section holding options.Options.
const configKey = "designer"

// fs is the filesystem every command works on.
var fs = afero.NewOsFs()

// optionFlags maps flag names to their options.Options key.
var optionFlags = map[string]string{
	"file":         "file",
	"model":        "model",
	"init-method":  "init_method",
	"package-path": "package_path",
	"dry-run":      "dry_run",
}

func addOptionFlags(c *cobra.Command) {
	c.Flags().StringP("file", "f", "", "Go source file opened in the designer")
	c.Flags().StringP("model", "m", "", "designer model file (default designer.yaml next to --file)")
	c.Flags().String("init-method", designer.DefaultInitMethod, "name of the generated initialize method")
	c.Flags().String("package-path", "", "import path of the file's package when go.mod cannot tell")
	c.Flags().BoolP("dry-run", "n", false, "report changes without writing them")
}

// loadOptions binds the flags of the running command over the config file
// and returns normalized options.
func loadOptions(c *cobra.Command, excludeByTagStrings ...string) (*options.Options, error) {
	for flag, key := range optionFlags {
		if f := c.Flags().Lookup(flag); f != nil {
			if err := viper.BindPFlag(configKey+"."+key, f); err != nil {
				return nil, fmt.Errorf("bind --%s: %w", flag, err)
			}
		}
	}
	cfg := struct {
		Designer *options.Options `mapstructure:"designer"`
	}{Designer: options.NewOptions()}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("read %s options: %w", configKey, err)
	}
	if err := cfg.Designer.Normalize(excludeByTagStrings...); err != nil {
		return nil, err
	}
	return cfg.Designer, nil
}
