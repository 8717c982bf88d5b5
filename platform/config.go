// Package platform loads YAML platform descriptors: the mapping from a
// device's reset-reason register bits to reboot reasons. The descriptor
// is host-side tooling input; on-device integrations wire a
// tracker.RegisterMapper directly in code.
package platform

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"reboottrack/common"
	"reboottrack/tracker"
)

// Config describes one platform's reset-reason register.
type Config struct {
	Name string `yaml:"name"`

	// ResetReasons is evaluated in order; the first matching rule wins.
	// A register value matching no rule maps to Unknown.
	ResetReasons []ReasonRule `yaml:"reset_reasons"`
}

// ReasonRule matches reset-register bits to a reason name.
type ReasonRule struct {
	// Mask selects the register bits the rule inspects.
	Mask uint32 `yaml:"mask"`

	// Value, when set, must equal the masked register value. When
	// omitted, the rule matches if any masked bit is set.
	Value *uint32 `yaml:"value,omitempty"`

	// Reason is the display name of a built-in or registered custom
	// reason, e.g. "PowerOnReset".
	Reason string `yaml:"reason"`
}

// Load reads and validates a platform descriptor file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("platform: read descriptor: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a platform descriptor.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("platform: parse descriptor: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("platform: descriptor missing name")
	}
	for i, rule := range c.ResetReasons {
		if rule.Mask == 0 {
			return fmt.Errorf("platform: rule %d of %s has zero mask", i, c.Name)
		}
		if _, ok := common.ReasonByName(rule.Reason); !ok {
			return fmt.Errorf("platform: rule %d of %s names unknown reason %q", i, c.Name, rule.Reason)
		}
	}
	return nil
}

// Mapper compiles the descriptor into a RegisterMapper for the engine.
func (c Config) Mapper() tracker.RegisterMapper {
	type compiledRule struct {
		mask   uint32
		value  uint32
		exact  bool
		reason common.RebootReason
	}
	rules := make([]compiledRule, 0, len(c.ResetReasons))
	for _, r := range c.ResetReasons {
		code, ok := common.ReasonByName(r.Reason)
		if !ok {
			continue // rejected by validate; hand-built Configs may still hit this
		}
		cr := compiledRule{mask: r.Mask, reason: code}
		if r.Value != nil {
			cr.exact = true
			cr.value = *r.Value
		}
		rules = append(rules, cr)
	}

	return tracker.RegisterMapperFunc(func(raw uint32) common.RebootReason {
		for _, r := range rules {
			masked := raw & r.mask
			if r.exact {
				if masked == r.value {
					return r.reason
				}
				continue
			}
			if masked != 0 {
				return r.reason
			}
		}
		return common.ReasonUnknown
	})
}
