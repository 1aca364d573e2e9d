package form

import (
	"fmt"
	"net/url"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// RegisterFormRoute is the bot registration form that receives the GitHub
// installation owner and id from its query string.
const RegisterFormRoute = "/tools/bot/register-form"

// PrefillPolicy copies query parameters into fields of the form whose
// action equals Route. Params maps query parameter to field id; missing
// parameters fill the empty string.
type PrefillPolicy struct {
	Route  string            `yaml:"route" json:"route"`
	Params map[string]string `yaml:"params" json:"params"`
}

// Apply fills the mapped fields from query and re-evaluates the rules.
// Fields absent from the form are skipped.
func (p PrefillPolicy) Apply(f *Form, query url.Values) {
	f.mu.Lock()
	defer f.mu.Unlock()

	params := make([]string, 0, len(p.Params))
	for param := range p.Params {
		params = append(params, param)
	}
	sort.Strings(params)

	for _, param := range params {
		id := p.Params[param]
		fld, err := f.lookup(id)
		if err != nil {
			f.cfg.logger.Debug("prefill field missing", zap.String("route", p.Route), zap.String("field", id))
			continue
		}
		if err := setValue(fld, query.Get(param)); err != nil {
			f.cfg.logger.Debug("prefill skipped", zap.String("field", id), zap.Error(err))
		}
	}
	f.applyRules()
}

// PrefillRegistry stores pre-fill policies keyed by route.
type PrefillRegistry struct {
	mu       sync.RWMutex
	policies map[string]PrefillPolicy
}

// NewPrefillRegistry returns a registry holding policies.
func NewPrefillRegistry(policies ...PrefillPolicy) (*PrefillRegistry, error) {
	r := &PrefillRegistry{policies: make(map[string]PrefillPolicy)}
	for _, policy := range policies {
		if err := r.Register(policy); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultPrefill returns a registry with the bot registration policy.
func DefaultPrefill() *PrefillRegistry {
	return &PrefillRegistry{policies: map[string]PrefillPolicy{
		RegisterFormRoute: {
			Route:  RegisterFormRoute,
			Params: map[string]string{"owner": "owner", "id": "installationId"},
		},
	}}
}

// Register adds or replaces the policy for its route.
func (r *PrefillRegistry) Register(policy PrefillPolicy) error {
	if policy.Route == "" {
		return fmt.Errorf("form: prefill route is required")
	}
	if len(policy.Params) == 0 {
		return fmt.Errorf("form: prefill policy %q has no params", policy.Route)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[policy.Route] = policy
	return nil
}

// Lookup returns the policy registered for route.
func (r *PrefillRegistry) Lookup(route string) (PrefillPolicy, bool) {
	if r == nil {
		return PrefillPolicy{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	policy, ok := r.policies[route]
	return policy, ok
}

// Routes lists registered routes in sorted order.
func (r *PrefillRegistry) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.policies))
	for route := range r.policies {
		out = append(out, route)
	}
	sort.Strings(out)
	return out
}
