package docsystem

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	models "hrdocs/internal/domain/models/docsystem"
)

//go:embed policy/visibility.yaml
var defaultPolicyYAML []byte

// VisibilityRule lists what one viewer role may see
type VisibilityRule struct {
	All        bool          `yaml:"all"`
	OwnerRoles []models.Role `yaml:"owner_roles"`
}

// allows reports whether the rule admits an item owned by ownerRole
func (r VisibilityRule) allows(ownerRole models.Role) bool {
	if r.All {
		return true
	}
	for _, allowed := range r.OwnerRoles {
		if allowed == ownerRole {
			return true
		}
	}
	return false
}

// Policy is the role visibility table. CanSee is total: every
// (viewer, owner) pair resolves through a role rule or the default rule.
type Policy struct {
	Default VisibilityRule                 `yaml:"default"`
	Roles   map[models.Role]VisibilityRule `yaml:"roles"`
}

// LoadPolicy parses a YAML visibility policy
func LoadPolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal visibility policy: %w", err)
	}
	if admin, ok := p.Roles[models.RoleAdmin]; !ok || !admin.All {
		return nil, fmt.Errorf("visibility policy must grant %s all items", models.RoleAdmin)
	}
	return &p, nil
}

var defaultPolicy = sync.OnceValue(func() *Policy {
	p, err := LoadPolicy(defaultPolicyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded visibility policy: %v", err))
	}
	return p
})

// DefaultPolicy returns the embedded policy
func DefaultPolicy() *Policy {
	return defaultPolicy()
}

// CanSee reports whether viewerRole may see and act on item
func (p *Policy) CanSee(item *models.Item, viewerRole models.Role) bool {
	rule, ok := p.Roles[viewerRole]
	if !ok {
		rule = p.Default
	}
	return rule.allows(item.OwnerRole)
}

// CanSee applies the embedded default policy
func CanSee(item *models.Item, viewerRole models.Role) bool {
	return DefaultPolicy().CanSee(item, viewerRole)
}
