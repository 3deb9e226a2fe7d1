package protected

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/vault-client-go"
)

// Vault is a client instance to Hashicorp Vault secure storage.
// The embedding endpoint API key lives there so it never appears in
// config files or the environment of the service container.
type Vault struct {
	Client *vault.Client
	mount  string
	path   string
}

// NewVaultClient creates new instance of Vault client
func NewVaultClient(mount string, path string) (*Vault, error) {
	vaultAddr := os.Getenv("VAULT_ADDR")
	if vaultAddr == "" {
		vaultAddr = "http://vault:8200"
	}
	client, err := vault.New(
		vault.WithAddress(vaultAddr),
		vault.WithRequestTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("error while creating new vault client instance: %w", err)
	}
	if token := os.Getenv("VAULT_TOKEN"); token != "" {
		if err = client.SetToken(token); err != nil {
			return nil, fmt.Errorf("error while setting token: %w", err)
		}
	}
	return &Vault{Client: client, mount: mount, path: path}, nil
}

// EmbeddingAPIKey reads the api_key field of the configured kv-v2 secret
func (v *Vault) EmbeddingAPIKey(ctx context.Context) (string, error) {
	resp, err := v.Client.Secrets.KvV2Read(ctx, v.path, vault.WithMountPath(v.mount))
	if err != nil {
		return "", fmt.Errorf("error while reading embedding secret: %w", err)
	}
	key, ok := resp.Data.Data["api_key"].(string)
	if !ok || key == "" {
		return "", fmt.Errorf("embedding secret %s/%s has no api_key field", v.mount, v.path)
	}
	return key, nil
}
