package jsast

import "fmt"

// ProgramStatements returns the top-level nodes of program when all of them
// may be moved into a function body. Comments are carried along. Import and
// export declarations, hashbang lines and any other non-statement node fail
// with an UnsupportedNodeError, since the wrapped code could not run anyway.
func ProgramStatements(program *Node) ([]*Node, error) {
	if program.Kind != KindProgram {
		return nil, fmt.Errorf("expected a Program node, got %s", program.Kind)
	}

	for _, c := range program.Children {
		if c.Kind == KindComment || c.Kind.IsStatement() {
			continue
		}
		return nil, &UnsupportedNodeError{Kind: c.Kind, Type: c.Type, Loc: c.Loc}
	}

	stmts := make([]*Node, len(program.Children))
	copy(stmts, program.Children)
	return stmts, nil
}
