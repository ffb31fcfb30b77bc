package di

import (
	"gopkg.in/yaml.v3"
)

// ServiceInfo is the diagnostic view of one compiled registration.
type ServiceInfo struct {
	Type      string `yaml:"type" json:"type"`
	Key       string `yaml:"key,omitempty" json:"key,omitempty"`
	Lifetime  string `yaml:"lifetime" json:"lifetime"`
	Strategy  string `yaml:"strategy" json:"strategy"`
	Decorated bool   `yaml:"decorated,omitempty" json:"decorated,omitempty"`
}

// Snapshot is a read-only dump of the compiled plan for logging and tooling:
// every service with its lifetime and creation strategy, plus the dependency
// graph adjacency observed at build time.
type Snapshot struct {
	Services []ServiceInfo       `yaml:"services" json:"services"`
	Graph    map[string][]string `yaml:"graph,omitempty" json:"graph,omitempty"`
}

// Snapshot returns the diagnostic view of the container's compiled plan, in
// registration order.
func (c *Container) Snapshot() Snapshot {
	snap := Snapshot{
		Services: make([]ServiceInfo, 0, len(c.plan.services)),
		Graph:    c.GraphAdjacency(),
	}
	for _, svc := range c.plan.services {
		info := ServiceInfo{
			Type:      svc.site.serviceType().String(),
			Lifetime:  svc.lifetime.String(),
			Strategy:  svc.strategy.String(),
			Decorated: svc.decorate,
		}
		if svc.key != nil {
			info.Key = keyName(svc.key)
		}
		snap.Services = append(snap.Services, info)
	}
	return snap
}

// GraphAdjacency returns the raw depends-on edges recorded at build time,
// keyed and listed by type name.
func (c *Container) GraphAdjacency() map[string][]string {
	adj := c.plan.graph.Adjacency()
	out := make(map[string][]string, len(adj))
	for from, tos := range adj {
		names := make([]string, 0, len(tos))
		for _, to := range tos {
			names = append(names, to.String())
		}
		out[from.String()] = names
	}
	return out
}

// YAML renders the snapshot for external tooling.
func (s Snapshot) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}
