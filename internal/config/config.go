// internal/config/config.go
//
// This package handles configuration and the .chilimate directory structure.
// The storefront creates a .chilimate/ folder in the directory it is run from.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/chili-mate/internal/catalog"
	"github.com/kingrea/chili-mate/internal/pricing"
)

const (
	// WorkspaceDir is the name of the directory we create in the working directory
	WorkspaceDir = ".chilimate"

	// LatencyEnv overrides payment.latency when set.
	LatencyEnv = "CHILIMATE_LATENCY"

	defaultStoreName  = "Chili Mate"
	defaultLatency    = "3s"
	defaultInvoiceDir = "invoices"
)

const defaultStoreConfigYAML = `# chili mate store configuration
version: 1

store:
  name: Chili Mate

# Leave path empty to use the bundled catalog.
catalog:
  path: ""
  default_sort: featured

pricing:
  free_shipping_threshold: 200000
  flat_shipping_fee: 15000

# Simulated payment processor. failure_rate is a probability between 0 and 1.
payment:
  latency: 3s
  failure_rate: 0

invoice:
  dir: invoices
`

// StoreSection names the storefront.
type StoreSection struct {
	Name string `yaml:"name"`
}

// CatalogSection locates the product file.
type CatalogSection struct {
	Path        string `yaml:"path"`
	DefaultSort string `yaml:"default_sort,omitempty"`
}

// PricingSection configures shipping.
type PricingSection struct {
	FreeShippingThreshold int64 `yaml:"free_shipping_threshold"`
	FlatShippingFee       int64 `yaml:"flat_shipping_fee"`
}

// PaymentSection configures the simulated processor.
type PaymentSection struct {
	Latency     string  `yaml:"latency"`
	FailureRate float64 `yaml:"failure_rate"`
}

// InvoiceSection controls where exported invoices go.
type InvoiceSection struct {
	Dir string `yaml:"dir"`
}

// StoreConfig models .chilimate/config.yaml.
type StoreConfig struct {
	Version int            `yaml:"version"`
	Store   StoreSection   `yaml:"store"`
	Catalog CatalogSection `yaml:"catalog"`
	Pricing PricingSection `yaml:"pricing"`
	Payment PaymentSection `yaml:"payment"`
	Invoice InvoiceSection `yaml:"invoice"`
}

// Config holds the runtime configuration for the storefront.
type Config struct {
	// ProjectDir is the directory the storefront was started from
	ProjectDir string

	// WorkspaceDir is ProjectDir/.chilimate
	WorkspaceDir string

	Store StoreConfig

	latency time.Duration
}

// InitWorkspace creates the .chilimate directory structure in the given directory.
// This is called when the TUI starts up.
//
// Structure created:
// .chilimate/
// ├── config.yaml
// ├── logs/         <- journey.log
// └── invoices/     <- exported invoices
func InitWorkspace(projectDir string) error {
	workspace := filepath.Join(projectDir, WorkspaceDir)

	dirs := []string{
		filepath.Join(workspace, "logs"),
		filepath.Join(workspace, defaultInvoiceDir),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if err := ensureStoreConfig(filepath.Join(workspace, "config.yaml")); err != nil {
		return err
	}

	return nil
}

// NewConfig creates a new Config instance populated with store settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:   projectDir,
		WorkspaceDir: filepath.Join(projectDir, WorkspaceDir),
		Store:        defaultStoreConfig(),
	}

	if err := cfg.loadStoreConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.WorkspaceDir, "logs")
}

// InvoiceDir returns the directory exported invoices are written to
func (c *Config) InvoiceDir() string {
	return c.Store.Invoice.Dir
}

// StoreConfigPath returns the on-disk location for the store config file.
func (c *Config) StoreConfigPath() string {
	return filepath.Join(c.WorkspaceDir, "config.yaml")
}

// StoreName returns the display name of the store.
func (c *Config) StoreName() string {
	return c.Store.Store.Name
}

// CatalogPath returns the configured catalog file, or "" for the bundled one.
func (c *Config) CatalogPath() string {
	return c.Store.Catalog.Path
}

// DefaultSort returns the persisted sort preference.
func (c *Config) DefaultSort() catalog.SortOption {
	opt, _ := catalog.ParseSortOption(c.Store.Catalog.DefaultSort)
	return opt
}

// PricingRules converts the pricing section.
func (c *Config) PricingRules() pricing.Rules {
	return pricing.Rules{
		FreeShippingThreshold: catalog.Money(c.Store.Pricing.FreeShippingThreshold),
		FlatShippingFee:       catalog.Money(c.Store.Pricing.FlatShippingFee),
	}
}

// PaymentLatency returns the simulated processor delay.
func (c *Config) PaymentLatency() time.Duration {
	return c.latency
}

// FailureRate returns the simulated decline probability.
func (c *Config) FailureRate() float64 {
	return c.Store.Payment.FailureRate
}

// SetDefaultSort updates the sort preference and persists the value back to
// .chilimate/config.yaml so the next launch opens with the same ordering.
func (c *Config) SetDefaultSort(opt catalog.SortOption) error {
	c.Store.Catalog.DefaultSort = opt.Key()
	return c.saveStoreConfig(opt.Key(), "catalog", "default_sort")
}

func (c *Config) loadStoreConfig() error {
	path := c.StoreConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.refresh()
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultStoreConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	c.Store = parsed
	return c.refresh()
}

func (c *Config) refresh() error {
	c.Store.applyDefaults()
	c.Store.normalize(c.ProjectDir, c.WorkspaceDir)
	if err := c.Store.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	latency, err := time.ParseDuration(c.Store.Payment.Latency)
	if err != nil {
		return fmt.Errorf("config: payment.latency: %w", err)
	}
	c.latency = latency
	return nil
}

func (c *Config) applyEnv() error {
	raw := strings.TrimSpace(os.Getenv(LatencyEnv))
	if raw == "" {
		return nil
	}
	latency, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", LatencyEnv, err)
	}
	if latency < 0 {
		return fmt.Errorf("config: %s must be >= 0", LatencyEnv)
	}
	c.latency = latency
	return nil
}

func defaultStoreConfig() StoreConfig {
	return StoreConfig{
		Version: 1,
		Store:   StoreSection{Name: defaultStoreName},
		Pricing: PricingSection{
			FreeShippingThreshold: int64(pricing.DefaultFreeShippingThreshold),
			FlatShippingFee:       int64(pricing.DefaultFlatShippingFee),
		},
		Payment: PaymentSection{Latency: defaultLatency},
		Invoice: InvoiceSection{Dir: defaultInvoiceDir},
	}
}

func (sc *StoreConfig) applyDefaults() {
	if sc.Version == 0 {
		sc.Version = 1
	}
	if strings.TrimSpace(sc.Store.Name) == "" {
		sc.Store.Name = defaultStoreName
	}
	if strings.TrimSpace(sc.Payment.Latency) == "" {
		sc.Payment.Latency = defaultLatency
	}
	if strings.TrimSpace(sc.Invoice.Dir) == "" {
		sc.Invoice.Dir = defaultInvoiceDir
	}
}

func (sc *StoreConfig) normalize(projectDir, workspace string) {
	sc.Store.Name = strings.TrimSpace(sc.Store.Name)
	sc.Catalog.Path = resolvePath(projectDir, sc.Catalog.Path)
	sc.Catalog.DefaultSort = strings.ToLower(strings.TrimSpace(sc.Catalog.DefaultSort))
	if sc.Catalog.DefaultSort == "" {
		sc.Catalog.DefaultSort = catalog.SortDefault.Key()
	}
	sc.Payment.Latency = strings.TrimSpace(sc.Payment.Latency)
	sc.Invoice.Dir = resolvePath(workspace, sc.Invoice.Dir)
}

func (sc *StoreConfig) validate() error {
	if sc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if _, ok := catalog.ParseSortOption(sc.Catalog.DefaultSort); !ok {
		return fmt.Errorf("catalog.default_sort %q is not a known sort", sc.Catalog.DefaultSort)
	}
	rules := pricing.Rules{
		FreeShippingThreshold: catalog.Money(sc.Pricing.FreeShippingThreshold),
		FlatShippingFee:       catalog.Money(sc.Pricing.FlatShippingFee),
	}
	if err := rules.Validate(); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	latency, err := time.ParseDuration(sc.Payment.Latency)
	if err != nil {
		return fmt.Errorf("payment.latency: %w", err)
	}
	if latency < 0 {
		return fmt.Errorf("payment.latency must be >= 0")
	}
	if sc.Payment.FailureRate < 0 || sc.Payment.FailureRate > 1 {
		return fmt.Errorf("payment.failure_rate must be between 0 and 1")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureStoreConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultStoreConfigYAML), 0644)
}

// saveStoreConfig writes one setting into config.yaml through the YAML node
// tree. Comments and paths are kept as written in the file.
func (c *Config) saveStoreConfig(value string, keys ...string) error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	if err := c.Store.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.WorkspaceDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure workspace dir: %w", err)
	}
	path := c.StoreConfigPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(bytes.TrimSpace(data)) == 0) {
		data, err = []byte(defaultStoreConfigYAML), nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := setNodeValue(&doc, value, keys...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("config: write store config: %w", err)
	}
	return nil
}

// setNodeValue sets the scalar at keys, creating missing mappings on the way.
func setNodeValue(doc *yaml.Node, value string, keys ...string) error {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return fmt.Errorf("config file is not a YAML document")
	}
	node := doc.Content[0]
	for depth, k := range keys {
		if node.Kind != yaml.MappingNode {
			return fmt.Errorf("%s is not a mapping", strings.Join(keys[:depth], "."))
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == k {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			next = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			if depth == len(keys)-1 {
				next = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str"}
			}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, next)
		}
		node = next
	}
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%s is not a scalar", strings.Join(keys, "."))
	}
	node.Value = value
	node.Tag = "!!str"
	node.Style = 0
	return nil
}
