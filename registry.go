package houston

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kyleturman/houston/config"
	"github.com/kyleturman/houston/llm"
	"github.com/kyleturman/houston/llm/anthropic"
	"github.com/kyleturman/houston/llm/gemini"
	"github.com/kyleturman/houston/llm/ollama"
	"github.com/kyleturman/houston/llm/openai"
	"github.com/kyleturman/houston/logging"
	"github.com/kyleturman/houston/usage"
)

// Resolution errors surfaced by the registry. Wrapped errors name the
// offending role / provider / model key; match with errors.Is.
var (
	// ErrUnknownRole is returned when a role is not present in the role table.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnknownProvider is returned when no provider factory is registered
	// under the requested name.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrUnknownModel is returned when a provider's catalog does not contain
	// the requested model key.
	ErrUnknownModel = errors.New("unknown model")
)

// ProviderFactory constructs an adapter for a model key.
type ProviderFactory func(modelKey string) (llm.Adapter, error)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Roles maps symbolic request categories onto provider/model pairs.
	Roles map[string]config.Role
	// Providers carries per-provider credentials for the built-in factories.
	Providers config.Providers
	// Recorder receives usage records from tracked adapters (nil disables
	// recording but tracking metadata is still attached).
	Recorder usage.Recorder
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Registry resolves symbolic roles or explicit (provider, model key) pairs to
// concrete adapters, attaching usage tracking when a principal is supplied.
// Adapters are constructed fresh per resolution; the registry holds no
// adapter state and is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	roles     map[string]config.Role
	factories map[string]ProviderFactory
	catalogs  map[string]map[string]string // provider -> model key -> wire model; nil = open catalog
	recorder  usage.Recorder
	logger    logging.Logger
}

// NewRegistry creates a Registry with the built-in providers ("anthropic",
// "openai", "gemini", "ollama") pre-registered. Unset options default to the
// standard role table, no recorder and a NoOp logger.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{
		Roles:  config.Default().Roles,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	r := &Registry{
		roles:     cloneRoles(opts.Roles),
		factories: make(map[string]ProviderFactory),
		catalogs:  make(map[string]map[string]string),
		recorder:  opts.Recorder,
		logger:    opts.Logger,
	}
	r.registerBuiltins(opts.Providers)
	return r
}

// registerBuiltins wires the built-in provider factories closed over the
// configured credentials.
func (r *Registry) registerBuiltins(p config.Providers) {
	r.RegisterProvider("anthropic", func(modelKey string) (llm.Adapter, error) {
		return anthropic.New(modelKey, func(o *anthropic.Options) {
			if p.Anthropic.APIKey != "" {
				o.APIKey = p.Anthropic.APIKey
			}
			if p.Anthropic.BaseURL != "" {
				o.BaseURL = p.Anthropic.BaseURL
			}
		})
	}, anthropic.Catalog())

	r.RegisterProvider("openai", func(modelKey string) (llm.Adapter, error) {
		return openai.New(modelKey, func(o *openai.Options) {
			if p.OpenAI.APIKey != "" {
				o.APIKey = p.OpenAI.APIKey
			}
			if p.OpenAI.BaseURL != "" {
				o.BaseURL = p.OpenAI.BaseURL
			}
		})
	}, openai.Catalog())

	r.RegisterProvider("gemini", func(modelKey string) (llm.Adapter, error) {
		return gemini.New(modelKey, func(o *gemini.Options) {
			if p.Gemini.APIKey != "" {
				o.APIKey = p.Gemini.APIKey
			}
		})
	}, gemini.Catalog())

	// The ollama catalog is user-defined, so any model key is accepted.
	r.RegisterProvider("ollama", func(modelKey string) (llm.Adapter, error) {
		return ollama.New(modelKey, func(o *ollama.Options) {
			if p.Ollama.BaseURL != "" {
				o.BaseURL = p.Ollama.BaseURL
			}
		})
	}, nil)
}

// RegisterProvider adds (or replaces) a provider factory. A nil catalog means
// the provider accepts any model key; otherwise resolution checks the key
// before constructing.
func (r *Registry) RegisterProvider(name string, factory ProviderFactory, catalog map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	if catalog == nil {
		r.catalogs[name] = nil
	} else {
		cp := make(map[string]string, len(catalog))
		for k, v := range catalog {
			cp[k] = v
		}
		r.catalogs[name] = cp
	}
}

// SetRoles atomically replaces the role table. Readers see either the old or
// the new table, never a mix; this is the hook config hot-reload feeds.
func (r *Registry) SetRoles(roles map[string]config.Role) {
	cp := cloneRoles(roles)
	r.mu.Lock()
	r.roles = cp
	r.mu.Unlock()
	r.logger.Debug("registry.roles.replaced", "roles", len(cp))
}

// Role returns the current assignment for a role.
func (r *Registry) Role(name string) (config.Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[name]
	return role, ok
}

// Roles returns a copy of the current role table.
func (r *Registry) Roles() map[string]config.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneRoles(r.roles)
}

// ResolveOptions carries the optional tracking arguments of a resolution.
type ResolveOptions struct {
	Principal usage.Principal
	Subject   usage.Subject
	Context   string
}

// ResolveOption mutates ResolveOptions.
type ResolveOption func(o *ResolveOptions)

// WithPrincipal attributes the adapter's usage to the given principal.
// Supplying a principal is what turns tracking on.
func WithPrincipal(p usage.Principal) ResolveOption {
	return func(o *ResolveOptions) { o.Principal = p }
}

// WithSubject attaches the domain object the request pertains to.
func WithSubject(s usage.Subject) ResolveOption {
	return func(o *ResolveOptions) { o.Subject = s }
}

// WithContext attaches a free-text accounting label.
func WithContext(label string) ResolveOption {
	return func(o *ResolveOptions) { o.Context = label }
}

// ForRole resolves the fixed provider/model assignment for a role and
// constructs its adapter, attaching tracking when a principal was supplied.
func (r *Registry) ForRole(role string, opts ...ResolveOption) (llm.Adapter, error) {
	assignment, ok := r.Role(role)
	if !ok {
		return nil, fmt.Errorf("registry: %w: %q", ErrUnknownRole, role)
	}
	return r.Get(assignment.Provider, assignment.Model, opts...)
}

// Get constructs the named provider/model adapter directly, attaching
// tracking when a principal was supplied. Tracking fields are populated if
// and only if a principal is present; subject and context options without a
// principal are ignored.
func (r *Registry) Get(provider, modelKey string, opts ...ResolveOption) (llm.Adapter, error) {
	var ro ResolveOptions
	for _, fn := range opts {
		fn(&ro)
	}

	r.mu.RLock()
	factory, ok := r.factories[provider]
	catalog := r.catalogs[provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: %w: %q", ErrUnknownProvider, provider)
	}
	if catalog != nil {
		if _, ok := catalog[modelKey]; !ok {
			return nil, fmt.Errorf("registry: %w: %q for provider %q", ErrUnknownModel, modelKey, provider)
		}
	}

	adapter, err := factory(modelKey)
	if err != nil {
		return nil, fmt.Errorf("registry: construct %s/%s: %w", provider, modelKey, err)
	}

	if ro.Principal == nil {
		r.logger.Debug("registry.resolved", "provider", provider, "model", modelKey, "tracked", false)
		return adapter, nil
	}

	tracking := usage.Tracking{Principal: ro.Principal, Subject: ro.Subject, Context: ro.Context}
	r.logger.Debug("registry.resolved",
		"provider", provider,
		"model", modelKey,
		"tracked", true,
		"principal", ro.Principal.PrincipalID(),
	)
	return usage.NewTracked(adapter, tracking, r.recorder, r.logger), nil
}

// ModelEntry is one row of the model catalog listing.
type ModelEntry struct {
	Provider string `json:"provider"`
	ModelKey string `json:"model_key"`
	APIModel string `json:"api_model"`
}

// Models lists the closed catalogs of all registered providers, sorted by
// provider then model key. Open-catalog providers (ollama) contribute no rows.
func (r *Registry) Models() []ModelEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ModelEntry
	for provider, catalog := range r.catalogs {
		for key, apiModel := range catalog {
			out = append(out, ModelEntry{Provider: provider, ModelKey: key, APIModel: apiModel})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].ModelKey < out[j].ModelKey
	})
	return out
}

func cloneRoles(roles map[string]config.Role) map[string]config.Role {
	cp := make(map[string]config.Role, len(roles))
	for k, v := range roles {
		cp[k] = v
	}
	return cp
}
