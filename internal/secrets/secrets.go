// Package secrets resolves warehouse credential material from one of the
// supported backends. Payloads are base64-encoded at rest regardless of
// backend; sources return the decoded natural form (JSON key file, YAML
// fragment, PEM private key).
package secrets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound marks a secret that does not exist in the backend. Callers use
// it to distinguish an absent optional secret from an access failure.
var ErrNotFound = errors.New("secret not found")

// IsNotFound reports whether err stems from a missing secret.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Source fetches one named secret. Names are slash-separated, e.g.
// "snowflake/password"; each backend maps the name onto its own namespace.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// CredentialError marks a credential-access failure, as opposed to a
// configuration error. Both are fatal, but operators triage them differently.
type CredentialError struct {
	Name string
	Err  error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential access failed for %q: %v", e.Name, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// decode strips whitespace and base64-decodes a stored payload.
func decode(name string, raw []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(string(raw))
	data, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, &CredentialError{Name: name, Err: fmt.Errorf("payload is not valid base64: %w", err)}
	}
	return data, nil
}
