package provider

import (
	"context"
)

// Capability tags how a provider's call function is invoked. It is fixed at
// construction; invoking a provider through the wrong dispatch entry point is
// a configuration error, not a provider failure.
type Capability int

const (
	// CapabilityBlocking providers are called synchronously on the caller's
	// goroutine via Dispatch.
	CapabilityBlocking Capability = iota
	// CapabilityContext providers take a context.Context and are called via
	// DispatchContext.
	CapabilityContext
)

func (c Capability) String() string {
	switch c {
	case CapabilityBlocking:
		return "blocking"
	case CapabilityContext:
		return "context"
	default:
		return "unknown"
	}
}

// Response is the raw value returned by a provider. The dispatcher never
// inspects or transforms it.
type Response map[string]any

// CallFunc is a blocking call capability. It receives the provider's own
// name, the prompt, and caller-supplied parameters forwarded verbatim.
type CallFunc func(name, prompt string, params map[string]any) (Response, error)

// CallContextFunc is the context-aware equivalent of CallFunc.
type CallContextFunc func(ctx context.Context, name, prompt string, params map[string]any) (Response, error)

// Provider is a routable completion target: a unique name (the key under
// which failures are tracked) and exactly one call capability.
type Provider struct {
	name        string
	capability  Capability
	call        CallFunc
	callContext CallContextFunc
}

// NewBlocking creates a provider backed by a blocking call capability.
func NewBlocking(name string, call CallFunc) *Provider {
	return &Provider{
		name:       name,
		capability: CapabilityBlocking,
		call:       call,
	}
}

// NewContext creates a provider backed by a context-aware call capability.
func NewContext(name string, call CallContextFunc) *Provider {
	return &Provider{
		name:        name,
		capability:  CapabilityContext,
		callContext: call,
	}
}

// Name returns the provider's unique name.
func (p *Provider) Name() string {
	return p.name
}

// Capability returns the call capability tag set at construction.
func (p *Provider) Capability() Capability {
	return p.capability
}

// Call invokes the blocking capability. The caller must have checked
// Capability first; Call on a context provider panics.
func (p *Provider) Call(prompt string, params map[string]any) (Response, error) {
	return p.call(p.name, prompt, params)
}

// CallContext invokes the context capability. The caller must have checked
// Capability first; CallContext on a blocking provider panics.
func (p *Provider) CallContext(ctx context.Context, prompt string, params map[string]any) (Response, error) {
	return p.callContext(ctx, p.name, prompt, params)
}
