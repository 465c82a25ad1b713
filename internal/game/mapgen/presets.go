package mapgen

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Preset is a named lobby map setup.
type Preset struct {
	Name        string  `yaml:"name"`
	Mode        Mode    `yaml:"mode"`
	WidthRatio  float64 `yaml:"width_ratio"`
	HeightRatio float64 `yaml:"height_ratio"`
	SwampRatio  float64 `yaml:"swamp_ratio"`
	Speed       float64 `yaml:"speed"`
	Token       string  `yaml:"token"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// Presets indexes presets by name.
type Presets map[string]Preset

// LoadPresets reads a YAML preset file.
func LoadPresets(path string) (Presets, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePresets(raw)
}

// ParsePresets decodes preset YAML. Missing ratios default to 1, a
// missing speed to 1 and an unknown mode to random.
func ParsePresets(raw []byte) (Presets, error) {
	var f presetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("presets.yaml: %w", err)
	}
	out := make(Presets, len(f.Presets))
	for _, p := range f.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("presets.yaml: preset without name")
		}
		if _, dup := out[p.Name]; dup {
			return nil, fmt.Errorf("presets.yaml: duplicate preset %q", p.Name)
		}
		p.Mode = ParseMode(string(p.Mode))
		if p.WidthRatio == 0 {
			p.WidthRatio = 1
		}
		if p.HeightRatio == 0 {
			p.HeightRatio = 1
		}
		if p.Speed <= 0 {
			p.Speed = 1
		}
		out[p.Name] = p
	}
	return out, nil
}

// Names returns the preset names in sorted order.
func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
