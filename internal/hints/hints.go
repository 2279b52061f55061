// Package hints loads the static capability table used to fill in
// modalities and service types that a pricing source does not state.
package hints

import (
	_ "embed"
	"os"
	"strings"

	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/goccy/go-yaml"
)

//go:embed hints.yaml
var defaultTable []byte

// Table maps providers to their capability rules.
type Table struct {
	Providers map[pricing.ProviderID]ProviderRules `yaml:"providers"`
}

// ProviderRules are the hints for one provider.
type ProviderRules struct {
	ServiceType pricing.ServiceType     `yaml:"service_type"`
	Modalities  []string                `yaml:"modalities"`
	Keys        map[string]pricing.Hint `yaml:"keys"`
	Prefixes    []PrefixRule            `yaml:"prefixes"`
}

// PrefixRule applies to every key starting with Prefix, case-insensitively.
type PrefixRule struct {
	Prefix      string              `yaml:"prefix"`
	ServiceType pricing.ServiceType `yaml:"service_type"`
	Modalities  []string            `yaml:"modalities"`
}

// Default returns the table compiled into the binary.
func Default() (*Table, error) {
	return Parse(defaultTable, "hints.yaml")
}

// Load reads a table from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a YAML hint table. name is used in error messages.
func Parse(data []byte, name string) (*Table, error) {
	var t Table
	if err := yaml.UnmarshalWithOptions(data, &t, yaml.DisallowUnknownField()); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}
	if t.Providers == nil {
		t.Providers = map[pricing.ProviderID]ProviderRules{}
	}
	return &t, nil
}

// Lookup returns the hint for key from provider. Exact key entries win over
// prefix rules, which win over the provider default. Fields left empty by
// a more specific rule are filled from the provider default.
func (t *Table) Lookup(provider pricing.ProviderID, key string) (pricing.Hint, bool) {
	if t == nil {
		return pricing.Hint{}, false
	}
	rules, ok := t.Providers[provider]
	if !ok {
		return pricing.Hint{}, false
	}

	hint := pricing.Hint{ServiceType: rules.ServiceType, Modalities: rules.Modalities}

	if exact, ok := rules.Keys[key]; ok {
		return merge(exact, hint), true
	}

	lower := strings.ToLower(key)
	for _, rule := range rules.Prefixes {
		if strings.HasPrefix(lower, strings.ToLower(rule.Prefix)) {
			return merge(pricing.Hint{ServiceType: rule.ServiceType, Modalities: rule.Modalities}, hint), true
		}
	}

	if hint.ServiceType == "" && len(hint.Modalities) == 0 {
		return pricing.Hint{}, false
	}
	return hint, true
}

func merge(specific, fallback pricing.Hint) pricing.Hint {
	if specific.ServiceType == "" {
		specific.ServiceType = fallback.ServiceType
	}
	if len(specific.Modalities) == 0 {
		specific.Modalities = fallback.Modalities
	}
	return specific
}
