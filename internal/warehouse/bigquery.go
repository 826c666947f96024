package warehouse

import (
	"context"
	"strings"

	"reportplane/internal/config"
	"reportplane/internal/secrets"
)

// BigQuery provisions service-account credentials for BigQuery.
type BigQuery struct{}

func (BigQuery) Kind() config.WarehouseKind { return config.WarehouseBigQuery }

func (BigQuery) Provision(ctx context.Context, src secrets.Source, paths Paths) (*Bundle, error) {
	vals, err := fetchAll(ctx, src, "bigquery", []string{"keyfile", "project", "dataset"})
	if err != nil {
		return nil, err
	}

	keyPath, err := writeKeyFile(paths.KeysDir, "bigquery-keyfile.json", vals["keyfile"])
	if err != nil {
		return nil, err
	}

	profilePath, err := writeProfile(paths, map[string]any{
		"type":     "bigquery",
		"method":   "service-account",
		"keyfile":  keyPath,
		"project":  strings.TrimSpace(string(vals["project"])),
		"dataset":  strings.TrimSpace(string(vals["dataset"])),
		"threads":  4,
		"priority": "interactive",
	})
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Kind:  config.WarehouseBigQuery,
		Files: []string{keyPath, profilePath},
		Env: map[string]string{
			"GOOGLE_APPLICATION_CREDENTIALS": keyPath,
		},
	}, nil
}
