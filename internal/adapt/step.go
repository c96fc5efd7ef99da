package adapt

import (
	"context"
	"fmt"

	"jsadapt/internal/config"
	"jsadapt/internal/jsast"
	"jsadapt/internal/logging"
	"jsadapt/internal/match"
	"jsadapt/internal/transform"
)

// Scan records every `<marker>('<request>')` call of tree in pre-order.
// Calls of the marker with a single non-literal argument are returned as
// dynamic requires.
func Scan(tree *jsast.Node, file, marker string, resolve Resolver) (*AliasTable, []*DynamicRequireError) {
	table := NewAliasTable()
	var dynamic []*DynamicRequireError

	jsast.Walk(tree, func(n, _ *jsast.Node) bool {
		args, ok := match.Call(n, marker, 1)
		if !ok {
			return true
		}
		request, ok := match.StringLiteral(args[0])
		if !ok {
			dynamic = append(dynamic, &DynamicRequireError{
				File:   file,
				Line:   n.Loc.Line + 1,
				Column: n.Loc.Column + 1,
				Source: abbreviate(jsast.Source(n)),
			})
			return true
		}
		table.Add(request, resolve(request))
		return true
	})
	return table, dynamic
}

// Rewrite replaces every `<marker>('<request>')` call with the identifier of
// its alias, positioned where the call was. Requests missing from table are
// added to it.
func Rewrite(ctx context.Context, tree *jsast.Node, marker string, table *AliasTable, resolve Resolver) (*jsast.Node, error) {
	idents := make(map[string]*jsast.Node)

	return match.Replace(tree, match.Visitor{
		Enter: func(n, _ *jsast.Node) (*jsast.Node, error) {
			args, ok := match.Call(n, marker, 1)
			if !ok {
				return nil, nil
			}
			request, ok := match.StringLiteral(args[0])
			if !ok {
				return nil, nil
			}
			ref := table.Add(request, resolve(request))

			ident, ok := idents[ref.Alias]
			if !ok {
				var err error
				ident, err = jsast.ParseFragment(ctx, ref.Alias, jsast.FragmentExpression)
				if err != nil {
					return nil, fmt.Errorf("alias %q of %q: %w", ref.Alias, request, err)
				}
				idents[ref.Alias] = ident
			}
			return jsast.Relocate(ident, n), nil
		},
	})
}

// Step adapts one bundle: it scans for require marker calls, rewrites them
// to aliases and wraps the program in the envelope.
type Step struct {
	Marker   string
	Envelope *Envelope
	// ModuleName names the bundle for envelopes that register it.
	ModuleName string
	Resolve    Resolver
	// FailOnDynamic turns dynamic requires into errors.
	FailOnDynamic bool
	// Before runs ahead of the adaptation on the same source.
	Before []transform.Transform
	// Exports makes the envelope bind "module", for bodies that assign
	// module.exports.
	Exports bool
}

// ExportModule is the loader dependency that binds the module object.
const ExportModule = "module"

// Result is the outcome of adapting one bundle.
type Result struct {
	Source   *transform.JSSource
	Aliases  *AliasTable
	Warnings []*DynamicRequireError
}

// NewStep returns the step configured by cfg for the named bundle module.
func NewStep(cfg config.AdaptConfig, moduleName string, resolve Resolver) (*Step, error) {
	env, err := EnvelopeFor(cfg)
	if err != nil {
		return nil, err
	}
	if resolve == nil {
		resolve = func(request string) string { return request }
	}

	exports := cfg.ExportsFunction()
	if exports && env.Name() == config.EnvelopeRequire {
		return nil, fmt.Errorf("exporting the module as a function needs the define or custom envelope")
	}

	s := &Step{
		Marker:        cfg.Marker,
		Envelope:      env,
		ModuleName:    moduleName,
		Resolve:       resolve,
		FailOnDynamic: cfg.DynamicRequires == config.DynamicRequiresFail,
		Exports:       exports,
	}
	if cfg.RootElementID != "" {
		s.Before = append(s.Before, transform.ReplaceCallArgument(
			"document.getElementById", 1, 0, cfg.RootElementID, "_LIFERAY_PARAMS_.portletElementId"))
	}
	if cfg.RootSelector != "" {
		s.Before = append(s.Before, transform.ReplaceLiteral(
			cfg.RootSelector, "'#' + _LIFERAY_PARAMS_.portletElementId"))
	}
	if len(cfg.StaticURLs) > 0 {
		s.Before = append(s.Before, transform.AdaptStaticURLs(cfg.StaticURLs, cfg.RuntimeHelper))
	}
	if exports {
		s.Before = append(s.Before, transform.ExportModuleAsFunction())
	}
	return s, nil
}

// Adapt runs the step on src. The input is not modified.
func (s *Step) Adapt(ctx context.Context, src *transform.JSSource) (*Result, error) {
	res := &Result{}

	scan := transform.JS("scan-requires", func(_ context.Context, js *transform.JSSource) (*transform.JSSource, error) {
		table, dynamic := Scan(js.Tree, js.Name, s.Marker, s.Resolve)
		for _, d := range dynamic {
			if s.FailOnDynamic {
				return nil, d
			}
			logging.AdaptWarn("%v", d)
		}
		res.Aliases, res.Warnings = table, dynamic
		return js, nil
	})
	rewrite := transform.JSTree("replace-requires", func(ctx context.Context, tree *jsast.Node) (*jsast.Node, error) {
		return Rewrite(ctx, tree, s.Marker, res.Aliases, s.Resolve)
	})
	wrap := transform.JSTree("wrap-module", func(ctx context.Context, tree *jsast.Node) (*jsast.Node, error) {
		data := EnvelopeData{
			ModuleName:   s.ModuleName,
			Dependencies: res.Aliases.ModuleIDs(),
			Variables:    res.Aliases.Aliases(),
		}
		if s.Exports {
			data.Dependencies = append([]string{ExportModule}, data.Dependencies...)
			data.Variables = append([]string{ExportModule}, data.Variables...)
		}
		v, err := match.Handlers{
			jsast.KindProgram: func(n, _ *jsast.Node) (*jsast.Node, error) {
				return s.Envelope.Wrap(ctx, n, data)
			},
		}.Exhaustive(match.Descend)
		if err != nil {
			return nil, err
		}
		return match.Replace(tree, v)
	})

	pipeline := append(append([]transform.Transform(nil), s.Before...), scan, rewrite, wrap)
	out, err := transform.Run(ctx, transform.KindJS, pipeline, src)
	if err != nil {
		return nil, err
	}
	res.Source = out.(*transform.JSSource)
	logging.AdaptDebug("%s: %d modules required", src.Name, res.Aliases.Len())
	return res, nil
}

func abbreviate(s string) string {
	const limit = 80
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
