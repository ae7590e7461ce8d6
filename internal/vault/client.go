package vault

import (
	"context"
	"fmt"
	"sync"

	"wyckoff-trading-bot/config"

	"github.com/hashicorp/vault/api"
)

// Client wraps the HashiCorp Vault client for reading service secrets
// (database credentials and exchange API keys) from a KV v2 mount.
type Client struct {
	client *api.Client
	config config.VaultConfig
	mu     sync.RWMutex
	cache  map[string]map[string]string
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{
			config: cfg,
			cache:  make(map[string]map[string]string),
		}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{
			CACert: cfg.CACert,
		}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{
		client: client,
		config: cfg,
		cache:  make(map[string]map[string]string),
	}, nil
}

// GetSecret reads all string fields of a secret under the configured path
// prefix. Reads are cached for the process lifetime; call ClearCache after
// a rotation.
func (c *Client) GetSecret(ctx context.Context, name string) (map[string]string, error) {
	c.mu.RLock()
	if cached, ok := c.cache[name]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	if !c.config.Enabled {
		return nil, fmt.Errorf("secret %q not found and vault is disabled", name)
	}

	path := fmt.Sprintf("%s/data/%s/%s", c.config.MountPath, c.config.SecretPath, name)

	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret %q not found", name)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format for %q", name)
	}

	fields := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}

	c.mu.Lock()
	c.cache[name] = fields
	c.mu.Unlock()

	return fields, nil
}

// GetDatabasePassword reads the database password secret. Returns empty
// string without error when vault is disabled, so the caller can fall back
// to the config value.
func (c *Client) GetDatabasePassword(ctx context.Context) (string, error) {
	if !c.config.Enabled {
		return "", nil
	}
	fields, err := c.GetSecret(ctx, "database")
	if err != nil {
		return "", err
	}
	return fields["password"], nil
}

// ClearCache clears the in-memory cache
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]map[string]string)
	c.mu.Unlock()
}

// IsEnabled returns whether Vault is enabled
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Health checks the Vault connection
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	health, err := c.client.Sys().Health()
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}
