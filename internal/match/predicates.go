package match

import "jsadapt/internal/jsast"

// IsKind reports whether n is one of kinds.
func IsKind(n *jsast.Node, kinds ...jsast.Kind) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// IsLiteral reports whether n is a literal equal to value. Integer values
// match numeric literals of the same magnitude.
func IsLiteral(n *jsast.Node, value any) bool {
	got, ok := jsast.LiteralValue(n)
	if !ok {
		return false
	}
	switch v := value.(type) {
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	}
	return got == value
}

// StringLiteral returns the value of a string literal node.
func StringLiteral(n *jsast.Node) (string, bool) {
	return jsast.StringValue(n)
}

// Call matches a call whose callee is the identifier or dotted member path
// callee and that has exactly arity arguments. A negative arity accepts any
// count. On a match the arguments are returned in order.
func Call(n *jsast.Node, callee string, arity int) ([]*jsast.Node, bool) {
	if n == nil || n.Kind != jsast.KindCallExpression {
		return nil, false
	}
	args := Arguments(n)
	if arity >= 0 && len(args) != arity {
		return nil, false
	}
	path, ok := jsast.MemberPath(n.ChildByField("function"))
	if !ok || path != callee {
		return nil, false
	}
	return args, true
}

// Arguments returns the argument expressions of a call or new expression.
func Arguments(call *jsast.Node) []*jsast.Node {
	args := call.ChildByField("arguments")
	if args == nil {
		return nil
	}
	return args.NamedChildren()
}

// ReplaceArgument returns a copy of call with argument i replaced by arg.
func ReplaceArgument(call *jsast.Node, i int, arg *jsast.Node) *jsast.Node {
	args := call.ChildByField("arguments")
	target := Arguments(call)[i]

	argChildren := make([]*jsast.Node, len(args.Children))
	for j, c := range args.Children {
		if c == target {
			c = substitute(target, arg)
		}
		argChildren[j] = c
	}

	children := make([]*jsast.Node, len(call.Children))
	for j, c := range call.Children {
		if c == args {
			c = args.WithChildren(argChildren)
		}
		children[j] = c
	}
	return call.WithChildren(children)
}
