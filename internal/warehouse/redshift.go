package warehouse

import (
	"context"
	"strings"

	"reportplane/internal/config"
	"reportplane/internal/secrets"
)

// Redshift provisions password credentials for Amazon Redshift.
type Redshift struct{}

func (Redshift) Kind() config.WarehouseKind { return config.WarehouseRedshift }

func (Redshift) Provision(ctx context.Context, src secrets.Source, paths Paths) (*Bundle, error) {
	vals, err := fetchAll(ctx, src, "redshift", []string{
		"host", "user", "password", "dbname", "schema",
	})
	if err != nil {
		return nil, err
	}

	profilePath, err := writeProfile(paths, map[string]any{
		"type":     "redshift",
		"host":     strings.TrimSpace(string(vals["host"])),
		"port":     5439,
		"user":     strings.TrimSpace(string(vals["user"])),
		"password": strings.TrimSpace(string(vals["password"])),
		"dbname":   strings.TrimSpace(string(vals["dbname"])),
		"schema":   strings.TrimSpace(string(vals["schema"])),
		"threads":  4,
	})
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Kind:  config.WarehouseRedshift,
		Files: []string{profilePath},
		Env:   map[string]string{},
	}, nil
}
