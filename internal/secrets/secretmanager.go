package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SecretManagerSource reads secrets from Google Secret Manager. A secret
// named "snowflake/password" is stored as "<prefix>-snowflake-password".
type SecretManagerSource struct {
	client  *secretmanager.Client
	project string
	prefix  string
}

// NewSecretManagerSource connects to Secret Manager. When credentialsFile is
// empty the client authenticates with the runtime's default identity.
func NewSecretManagerSource(ctx context.Context, project, prefix, credentialsFile string) (*SecretManagerSource, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, &CredentialError{Name: "secret-manager", Err: fmt.Errorf("client setup: %w", err)}
	}
	return &SecretManagerSource{client: client, project: project, prefix: prefix}, nil
}

// Fetch implements Source against the latest enabled secret version.
func (s *SecretManagerSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	secretID := s.prefix + "-" + strings.ReplaceAll(name, "/", "-")
	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, secretID),
	}
	resp, err := s.client.AccessSecretVersion(ctx, req)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, &CredentialError{Name: name, Err: fmt.Errorf("secret %s: %w", secretID, ErrNotFound)}
		}
		return nil, &CredentialError{Name: name, Err: err}
	}
	return decode(name, resp.GetPayload().GetData())
}

// Close releases the underlying gRPC connection.
func (s *SecretManagerSource) Close() error {
	return s.client.Close()
}
