package warehouse

import (
	"context"
	"strings"

	"reportplane/internal/config"
	"reportplane/internal/secrets"
)

// Fabric provisions service-principal credentials for Microsoft Fabric.
type Fabric struct{}

func (Fabric) Kind() config.WarehouseKind { return config.WarehouseFabric }

func (Fabric) Provision(ctx context.Context, src secrets.Source, paths Paths) (*Bundle, error) {
	vals, err := fetchAll(ctx, src, "fabric", []string{
		"server", "database", "schema", "client_id", "client_secret", "tenant_id",
	})
	if err != nil {
		return nil, err
	}

	profilePath, err := writeProfile(paths, map[string]any{
		"type":           "fabric",
		"driver":         "ODBC Driver 18 for SQL Server",
		"server":         strings.TrimSpace(string(vals["server"])),
		"port":           1433,
		"database":       strings.TrimSpace(string(vals["database"])),
		"schema":         strings.TrimSpace(string(vals["schema"])),
		"authentication": "ServicePrincipal",
		"client_id":      strings.TrimSpace(string(vals["client_id"])),
		"client_secret":  strings.TrimSpace(string(vals["client_secret"])),
		"tenant_id":      strings.TrimSpace(string(vals["tenant_id"])),
		"threads":        4,
	})
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Kind:  config.WarehouseFabric,
		Files: []string{profilePath},
		Env:   map[string]string{},
	}, nil
}
