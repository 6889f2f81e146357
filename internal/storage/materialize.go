package storage

import (
	"context"
	"fmt"

	"github.com/eugenenazirov/functest-config/internal/config"
	"github.com/eugenenazirov/functest-config/internal/render"
)

const (
	passwordFilePerm = 0o600
	configFilePerm   = 0o600 // rendered config includes DIRECTORY_INSTANCE_PSWD
	configFileBase   = "functest-config"
)

// Result lists the files written by Materialize.
type Result struct {
	PasswordFile string
	ConfigFile   string
}

// Materialize writes the password file named by PSWDFILE and a rendered copy
// of cfg. When configPath is empty the rendered file goes to TMPDIR.
func Materialize(ctx context.Context, store Storage, cfg *config.Config, format render.Format, configPath string) (Result, error) {
	rendered, err := render.String(cfg, format)
	if err != nil {
		return Result{}, fmt.Errorf("render config: %w", err)
	}

	if configPath == "" {
		configPath = fmt.Sprintf("%s/%s%s", cfg.Value(config.TempDir), configFileBase, format.Extension())
	}

	passwordFile := cfg.Value(config.PasswordFile)
	if err := store.WriteFile(ctx, passwordFile, []byte(cfg.Value(config.InstancePassword)+"\n"), passwordFilePerm); err != nil {
		return Result{}, fmt.Errorf("write password file: %w", err)
	}
	if err := store.WriteFile(ctx, configPath, []byte(rendered), configFilePerm); err != nil {
		return Result{}, fmt.Errorf("write config file: %w", err)
	}

	return Result{PasswordFile: passwordFile, ConfigFile: configPath}, nil
}
