package quality

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"fichas/internal/validation"
)

//go:embed rules.yaml
var defaultRules []byte

// Rules holds the thresholds of the rule battery.
type Rules struct {
	MinDescriptionWords  int      `yaml:"min_description_words" json:"min_description_words" validate:"gte=0"`
	MaxSloganWords       int      `yaml:"max_slogan_words" json:"max_slogan_words" validate:"gte=1"`
	MinDocuments         int      `yaml:"min_documents" json:"min_documents" validate:"gte=1"`
	MinRequirementPoints int      `yaml:"min_requirement_points" json:"min_requirement_points" validate:"gte=1"`
	MinPointLength       int      `yaml:"min_point_length" json:"min_point_length" validate:"gte=0"`
	OnlinePortal         string   `yaml:"online_portal" json:"online_portal" validate:"required"`
	PlaceholderUsers     []string `yaml:"placeholder_users" json:"placeholder_users"`
}

// LoadRules reads a rules file. Keys it omits keep their embedded values.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("quality: read rules %q: %w", path, err)
	}
	r, err := ParseRules(data)
	if err != nil {
		return Rules{}, fmt.Errorf("quality: load rules %q: %w", path, err)
	}
	return r, nil
}

// ParseRules decodes rules YAML over the embedded defaults.
func ParseRules(data []byte) (Rules, error) {
	r := DefaultRules()
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("quality: parse rules: %w", err)
	}
	if err := validation.Struct(r); err != nil {
		return Rules{}, fmt.Errorf("quality: invalid rules: %w", err)
	}
	return r, nil
}

var embeddedRules = sync.OnceValue(func() Rules {
	var r Rules
	if err := yaml.Unmarshal(defaultRules, &r); err != nil {
		panic(fmt.Sprintf("quality: embedded rules.yaml: %v", err))
	}
	return r
})

// DefaultRules returns a copy of the embedded thresholds.
func DefaultRules() Rules {
	r := embeddedRules()
	r.PlaceholderUsers = append([]string(nil), r.PlaceholderUsers...)
	return r
}
