package warehouse

import (
	"context"
	"fmt"
	"strings"

	"reportplane/internal/config"
	"reportplane/internal/secrets"
)

// Snowflake provisions key-pair or password credentials for Snowflake.
// When a "private_key" secret exists it wins over password authentication.
type Snowflake struct{}

func (Snowflake) Kind() config.WarehouseKind { return config.WarehouseSnowflake }

func (Snowflake) Provision(ctx context.Context, src secrets.Source, paths Paths) (*Bundle, error) {
	vals, err := fetchAll(ctx, src, "snowflake", []string{
		"account", "user", "database", "schema", "warehouse", "role",
	})
	if err != nil {
		return nil, err
	}

	output := map[string]any{
		"type":      "snowflake",
		"account":   strings.TrimSpace(string(vals["account"])),
		"user":      strings.TrimSpace(string(vals["user"])),
		"database":  strings.TrimSpace(string(vals["database"])),
		"schema":    strings.TrimSpace(string(vals["schema"])),
		"warehouse": strings.TrimSpace(string(vals["warehouse"])),
		"role":      strings.TrimSpace(string(vals["role"])),
		"threads":   4,
	}

	var files []string

	pem, hasKey, err := fetchOptional(ctx, src, "snowflake/private_key")
	if err != nil {
		return nil, err
	}
	if hasKey {
		keyPath, err := writeKeyFile(paths.KeysDir, "snowflake-rsa-key.p8", pem)
		if err != nil {
			return nil, err
		}
		files = append(files, keyPath)
		output["private_key_path"] = keyPath

		passphrase, hasPassphrase, err := fetchOptional(ctx, src, "snowflake/private_key_passphrase")
		if err != nil {
			return nil, err
		}
		if hasPassphrase {
			output["private_key_passphrase"] = strings.TrimSpace(string(passphrase))
		}
	} else {
		password, err := src.Fetch(ctx, "snowflake/password")
		if err != nil {
			return nil, fmt.Errorf("snowflake requires either a private_key or a password secret: %w", err)
		}
		output["password"] = strings.TrimSpace(string(password))
	}

	profilePath, err := writeProfile(paths, output)
	if err != nil {
		return nil, err
	}
	files = append(files, profilePath)

	return &Bundle{
		Kind:  config.WarehouseSnowflake,
		Files: files,
		Env:   map[string]string{},
	}, nil
}
