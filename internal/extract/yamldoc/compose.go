package yamldoc

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Compose summarizes a compose-style service file.
type Compose struct {
	Version   string              `json:"version,omitempty"`
	Services  []string            `json:"services"`
	Images    map[string]string   `json:"images"`
	Ports     map[string][]string `json:"ports"`
	DependsOn map[string][]string `json:"dependsOn"`
	Volumes   []string            `json:"volumes"`
	Networks  []string            `json:"networks"`
}

type composeFile struct {
	Version  string                    `yaml:"version"`
	Services map[string]composeService `yaml:"services"`
	Volumes  map[string]any            `yaml:"volumes"`
	Networks map[string]any            `yaml:"networks"`
}

type composeService struct {
	Image     string    `yaml:"image"`
	Ports     []string  `yaml:"ports"`
	DependsOn yaml.Node `yaml:"depends_on"`
}

// ParseCompose decodes a compose file. depends_on may be a list or a map.
func ParseCompose(content string) (*Compose, error) {
	var f composeFile
	if err := yaml.Unmarshal([]byte(content), &f); err != nil {
		return nil, fmt.Errorf("yamldoc: compose: %w", err)
	}
	if len(f.Services) == 0 {
		return nil, fmt.Errorf("yamldoc: compose: no services")
	}
	c := &Compose{
		Version:   f.Version,
		Services:  sortedKeys(f.Services),
		Images:    map[string]string{},
		Ports:     map[string][]string{},
		DependsOn: map[string][]string{},
		Volumes:   sortedKeys(f.Volumes),
		Networks:  sortedKeys(f.Networks),
	}
	for name, s := range f.Services {
		if s.Image != "" {
			c.Images[name] = s.Image
		}
		if len(s.Ports) > 0 {
			c.Ports[name] = s.Ports
		}
		if deps := dependencies(&s.DependsOn); len(deps) > 0 {
			c.DependsOn[name] = deps
		}
	}
	return c, nil
}

func dependencies(n *yaml.Node) []string {
	var out []string
	switch n.Kind {
	case yaml.SequenceNode:
		for _, c := range n.Content {
			out = append(out, c.Value)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			out = append(out, n.Content[i].Value)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
