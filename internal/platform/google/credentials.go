// Package google acquires service account credentials and builds the Google
// API and Firebase clients the pipeline talks to.
package google

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	vault "github.com/hashicorp/vault/api"
)

// ErrNoCredentials means a source has nothing to offer; a chain moves on.
var ErrNoCredentials = errors.New("no credentials available")

// Source yields a service account JSON document.
type Source interface {
	Credentials(ctx context.Context) ([]byte, error)
}

// FileSource reads credentials from a local JSON file.
type FileSource struct {
	Path string
}

func (s FileSource) Credentials(context.Context) ([]byte, error) {
	if s.Path == "" {
		return nil, ErrNoCredentials
	}
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrNoCredentials, s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	return b, nil
}

// SecretManagerSource reads the latest version of a Secret Manager secret.
type SecretManagerSource struct {
	name   string
	access func(ctx context.Context, name string) ([]byte, error)
	close  func() error
}

// NewSecretManagerSource creates a source for secret, given either as a full
// resource name or a short id resolved within projectID.
func NewSecretManagerSource(ctx context.Context, projectID, secret string) (*SecretManagerSource, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secret manager client: %w", err)
	}
	access := func(ctx context.Context, name string) ([]byte, error) {
		resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		if err != nil {
			return nil, err
		}
		return resp.GetPayload().GetData(), nil
	}
	return &SecretManagerSource{name: secretVersionName(projectID, secret), access: access, close: client.Close}, nil
}

func (s *SecretManagerSource) Credentials(ctx context.Context) ([]byte, error) {
	b, err := s.access(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("accessing secret %s: %w", s.name, err)
	}
	return b, nil
}

// Close releases the underlying client.
func (s *SecretManagerSource) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func secretVersionName(projectID, secret string) string {
	if strings.HasPrefix(secret, "projects/") {
		if strings.Contains(secret, "/versions/") {
			return secret
		}
		return secret + "/versions/latest"
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secret)
}

// VaultSource reads credentials from a KV v2 secret. Ref has the form
// "mount/path#key"; key defaults to "credentials".
type VaultSource struct {
	client *vault.Client
	ref    string
}

// NewVaultSource builds a Vault client from VAULT_ADDR and VAULT_TOKEN.
func NewVaultSource(ref string) (*VaultSource, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		client.SetToken(tok)
	}
	return NewVaultSourceWithClient(client, ref), nil
}

// NewVaultSourceWithClient uses an existing client.
func NewVaultSourceWithClient(client *vault.Client, ref string) *VaultSource {
	return &VaultSource{client: client, ref: ref}
}

func (s *VaultSource) Credentials(ctx context.Context) ([]byte, error) {
	path, key, _ := strings.Cut(s.ref, "#")
	if key == "" {
		key = "credentials"
	}
	mount, rel, _ := strings.Cut(path, "/")
	if mount == "" || rel == "" {
		return nil, fmt.Errorf("vault path %q must be mount/path", path)
	}
	sec, err := s.client.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return nil, fmt.Errorf("vault get %s: %w", path, err)
	}
	raw, ok := sec.Data[key]
	if !ok {
		return nil, fmt.Errorf("key %q not found in secret %q", key, path)
	}
	sval, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("value at %s#%s is not a string", path, key)
	}
	return []byte(sval), nil
}

// ChainSource tries each source in order and returns the first credentials
// found. Sources reporting ErrNoCredentials are skipped; any other error
// stops the chain.
type ChainSource []Source

func (c ChainSource) Credentials(ctx context.Context) ([]byte, error) {
	for _, s := range c {
		b, err := s.Credentials(ctx)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, ErrNoCredentials) {
			return nil, err
		}
	}
	return nil, ErrNoCredentials
}

// Compile-time interface checks
var (
	_ Source = FileSource{}
	_ Source = (*SecretManagerSource)(nil)
	_ Source = (*VaultSource)(nil)
	_ Source = ChainSource(nil)
)
