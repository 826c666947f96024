// Package warehouse materializes warehouse-specific credentials into the
// profile file and key files the external tools consume. Exactly one
// warehouse kind is provisioned per run; the variant set is closed and
// selection is checked before any file is written.
package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"reportplane/internal/config"
	"reportplane/internal/secrets"
)

// Paths tells a provisioner where to put its artifacts.
type Paths struct {
	ProfilesDir string // directory holding profiles.yml
	KeysDir     string // directory for private key material, created 0700
	Profile     string // profile name, usually the logical project name
}

// ProfilePath is the profile file the tools read.
func (p Paths) ProfilePath() string {
	return filepath.Join(p.ProfilesDir, "profiles.yml")
}

// Bundle is the materialized credential set for one warehouse kind.
// Secret values never appear here; only file paths and non-secret settings.
type Bundle struct {
	Kind  config.WarehouseKind
	Files []string          // every file written, in write order
	Env   map[string]string // forwarded to every tool invocation
}

// Provisioner produces a Bundle for one warehouse kind.
type Provisioner interface {
	Kind() config.WarehouseKind
	Provision(ctx context.Context, src secrets.Source, paths Paths) (*Bundle, error)
}

// ForKind returns the provisioner for a warehouse kind. The switch is the
// single place a new kind gets registered.
func ForKind(kind config.WarehouseKind) (Provisioner, error) {
	switch kind {
	case config.WarehouseBigQuery:
		return &BigQuery{}, nil
	case config.WarehouseSnowflake:
		return &Snowflake{}, nil
	case config.WarehouseRedshift:
		return &Redshift{}, nil
	case config.WarehouseFabric:
		return &Fabric{}, nil
	}
	return nil, fmt.Errorf("unrecognized warehouse kind %q", kind)
}

// Provision resolves the configured credential source and materializes the
// bundle. In manual mode the profile must already exist; nothing is written.
func Provision(ctx context.Context, cfg *config.Config, src secrets.Source, log *slog.Logger) (*Bundle, error) {
	paths := Paths{
		ProfilesDir: cfg.ProfilesDir,
		KeysDir:     filepath.Join(cfg.ProfilesDir, "keys"),
		Profile:     cfg.Project,
	}

	if cfg.CredentialSource == config.SourceManual {
		if _, err := os.Stat(paths.ProfilePath()); err != nil {
			return nil, &secrets.CredentialError{
				Name: "profile",
				Err:  fmt.Errorf("manual mode requires an existing %s: %w", paths.ProfilePath(), err),
			}
		}
		log.Info("using operator-managed warehouse profile", "profile", paths.ProfilePath(), "warehouse", string(cfg.Warehouse))
		return &Bundle{
			Kind: cfg.Warehouse,
			Env:  map[string]string{"DBT_PROFILES_DIR": cfg.ProfilesDir},
		}, nil
	}

	prov, err := ForKind(cfg.Warehouse)
	if err != nil {
		return nil, err
	}

	bundle, err := prov.Provision(ctx, src, paths)
	if err != nil {
		return nil, err
	}
	bundle.Env["DBT_PROFILES_DIR"] = cfg.ProfilesDir

	log.Info("warehouse credentials materialized",
		"warehouse", string(bundle.Kind),
		"files", len(bundle.Files),
		"profile", paths.ProfilePath(),
	)
	return bundle, nil
}

// fetchAll resolves every required secret before any file is written, so a
// missing secret leaves no partial credential state behind.
func fetchAll(ctx context.Context, src secrets.Source, kind string, fields []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(fields))
	for _, field := range fields {
		data, err := src.Fetch(ctx, kind+"/"+field)
		if err != nil {
			return nil, err
		}
		out[field] = data
	}
	return out, nil
}

// fetchOptional resolves a secret that may legitimately be absent.
func fetchOptional(ctx context.Context, src secrets.Source, name string) ([]byte, bool, error) {
	data, err := src.Fetch(ctx, name)
	if err != nil {
		if secrets.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// writeKeyFile writes private key material with owner-only permissions.
func writeKeyFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create key directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write key file: %w", err)
	}
	return path, nil
}

// writeProfile renders profiles.yml for a single output named "prod".
func writeProfile(paths Paths, output map[string]any) (string, error) {
	doc := map[string]any{
		paths.Profile: map[string]any{
			"target": "prod",
			"outputs": map[string]any{
				"prod": output,
			},
		},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to render profile: %w", err)
	}
	if err := os.MkdirAll(paths.ProfilesDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create profiles directory: %w", err)
	}
	path := paths.ProfilePath()
	// The profile carries connection secrets, so it is owner-only too.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write profile: %w", err)
	}
	return path, nil
}
