package validator

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/formrules/pkg/remote"
	"github.com/dmitrymomot/formrules/pkg/rule"
)

func remoteRules() map[string]Definition {
	return map[string]Definition{
		"exists":     {New: lookupRule, Nullable: true},
		"unique":     {New: lookupRule, Nullable: true},
		"active_url": {New: activeURL, Nullable: true},
	}
}

// remoteCheck is an AsyncRule backed by a remote.Endpoint.
type remoteCheck struct {
	check
	endpoint remote.Endpoint
	params   map[string]any
}

func (r *remoteCheck) CheckContext(ctx context.Context, in Input) (bool, error) {
	return r.endpoint.Check(ctx, remote.Request{
		Rule:   in.Spec.Name,
		Path:   in.Path,
		Value:  in.Value,
		Params: r.params,
		Form:   in.Form,
	})
}

func (r *remoteCheck) Dependencies(owner string) []string {
	if dep, ok := r.endpoint.(remote.Dependent); ok {
		return dep.Dependencies(owner)
	}
	return nil
}

// lookupRule builds exists and unique: exists:table,column sends the table
// and column to the endpoint, which decides where to look.
func lookupRule(spec rule.Spec, env Env) (Rule, error) {
	if env.Endpoint == nil {
		return nil, fmt.Errorf("%w: no endpoint configured for %s", ErrInvalidEndpoint, spec.Name)
	}
	return newRemoteCheck(spec, env.Endpoint, func(Input) bool { return true }), nil
}

// activeURL passes well-formed URLs whose host answers. The endpoint
// defaults to a reachability probe.
func activeURL(spec rule.Spec, env Env) (Rule, error) {
	if env.Endpoint == nil {
		return nil, fmt.Errorf("%w: no endpoint configured for %s", ErrInvalidEndpoint, spec.Name)
	}
	return newRemoteCheck(spec, env.Endpoint, func(in Input) bool {
		return validFormat(in.Value, "url")
	}), nil
}

func newRemoteCheck(spec rule.Spec, endpoint remote.Endpoint, precheck func(Input) bool) *remoteCheck {
	params := make(map[string]any, len(spec.Attributes))
	for _, a := range spec.Attributes {
		switch {
		case a.Named && a.Key == debounceAttr:
		case a.Named:
			params[a.Key] = a.Value
		case a.Index == 0:
			params["table"] = a.Value
		case a.Index == 1:
			params["column"] = a.Value
		}
	}
	return &remoteCheck{
		check:    check{fn: precheck},
		endpoint: endpoint,
		params:   params,
	}
}
