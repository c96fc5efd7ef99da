package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"jsadapt/internal/jsast"
	"jsadapt/internal/match"
)

// replaceable reports whether a literal may be swapped for an arbitrary
// expression: property keys and import sources may not.
func replaceable(n *jsast.Node) bool {
	return n.Field != "key" && n.Field != "source"
}

// ReplaceLiteral replaces every literal equal to value with the expression
// replacement.
func ReplaceLiteral(value any, replacement string) Transform {
	return JSTree("replace-literal", func(ctx context.Context, tree *jsast.Node) (*jsast.Node, error) {
		expr, err := jsast.ParseFragment(ctx, replacement, jsast.FragmentExpression)
		if err != nil {
			return nil, err
		}
		return match.Replace(tree, match.Visitor{
			Enter: func(n, _ *jsast.Node) (*jsast.Node, error) {
				if n.Kind == jsast.KindLiteral && replaceable(n) && match.IsLiteral(n, value) {
					return jsast.Relocate(expr, n), nil
				}
				return nil, nil
			},
		})
	})
}

// ReplaceCallArgument rewrites calls to callee with the given arity whose
// argument at index equals value, replacing that argument with the
// expression replacement.
func ReplaceCallArgument(callee string, arity, index int, value any, replacement string) Transform {
	return JSTree("replace-call-argument", func(ctx context.Context, tree *jsast.Node) (*jsast.Node, error) {
		if index < 0 || (arity >= 0 && index >= arity) {
			return nil, fmt.Errorf("argument index %d out of range for arity %d", index, arity)
		}
		expr, err := jsast.ParseFragment(ctx, replacement, jsast.FragmentExpression)
		if err != nil {
			return nil, err
		}
		return match.Replace(tree, match.Visitor{
			Enter: func(n, _ *jsast.Node) (*jsast.Node, error) {
				args, ok := match.Call(n, callee, arity)
				if !ok || index >= len(args) || !match.IsLiteral(args[index], value) {
					return nil, nil
				}
				return match.ReplaceArgument(n, index, jsast.Relocate(expr, args[index])), nil
			},
		})
	})
}

// AdaptStaticURLs wraps string literals naming one of urls in a call to
// runtimeCallee, so the URL is resolved when the code runs. Literals already
// passed to runtimeCallee are left alone.
func AdaptStaticURLs(urls []string, runtimeCallee string) Transform {
	set := make(map[string]bool, len(urls))
	for _, u := range urls {
		set[u] = true
	}

	return JSTree("adapt-static-urls", func(ctx context.Context, tree *jsast.Node) (*jsast.Node, error) {
		cache := make(map[string]*jsast.Node)
		return match.Replace(tree, match.Visitor{
			Enter: func(n, _ *jsast.Node) (*jsast.Node, error) {
				if _, ok := match.Call(n, runtimeCallee, 1); ok {
					return n, nil
				}
				value, ok := match.StringLiteral(n)
				if !ok || !set[value] || !replaceable(n) {
					return nil, nil
				}
				expr, ok := cache[value]
				if !ok {
					quoted, err := json.Marshal(value)
					if err != nil {
						return nil, err
					}
					expr, err = jsast.ParseFragment(ctx, fmt.Sprintf("%s(%s)", runtimeCallee, quoted), jsast.FragmentExpression)
					if err != nil {
						return nil, err
					}
					cache[value] = expr
				}
				return jsast.Relocate(expr, n), nil
			},
		})
	})
}

// DefaultExportParams are the parameters of the function produced by
// ExportModuleAsFunction when none are given.
var DefaultExportParams = []string{"_LIFERAY_PARAMS_", "_ADAPT_RT_"}

// ExportModuleAsFunction moves the whole program into a function assigned
// to module.exports, so the module body runs once per call.
func ExportModuleAsFunction(params ...string) Transform {
	if len(params) == 0 {
		params = DefaultExportParams
	}
	text := fmt.Sprintf("module.exports = function(%s) {\n};", strings.Join(params, ", "))

	return JSTree("export-module-as-function", func(ctx context.Context, tree *jsast.Node) (*jsast.Node, error) {
		stmts, err := jsast.ProgramStatements(tree)
		if err != nil {
			return nil, err
		}
		tpl, err := jsast.ParseFragment(ctx, text, jsast.FragmentProgram)
		if err != nil {
			return nil, err
		}
		tpl = jsast.Relocate(tpl, tree)

		path, err := exportedFunctionBody(tpl)
		if err != nil {
			return nil, err
		}
		body, err := jsast.WithBlockBody(path[len(path)-1], stmts, "\n")
		if err != nil {
			return nil, err
		}
		out := jsast.ReplacePath(path, body)
		out.Trailing = tree.Trailing
		return out, nil
	})
}

// exportedFunctionBody returns the chain of nodes from program down to the
// body of the function in `module.exports = function() {}`.
func exportedFunctionBody(program *jsast.Node) ([]*jsast.Node, error) {
	stmts := program.NamedChildren()
	if len(stmts) == 1 && stmts[0].Kind == jsast.KindExpressionStatement {
		exprs := stmts[0].NamedChildren()
		if len(exprs) == 1 && exprs[0].Kind == jsast.KindAssignmentExpression {
			fn := exprs[0].ChildByField("right")
			if fn != nil {
				if body, ok := jsast.FunctionBody(fn); ok && fn.Kind == jsast.KindFunctionExpression {
					return []*jsast.Node{program, stmts[0], exprs[0], fn, body}, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("provided program does not match the expected structure")
}
