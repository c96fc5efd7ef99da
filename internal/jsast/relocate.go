package jsast

// Relocate returns a deep copy of newNode in which every node carries the
// position metadata of original. Neither argument is modified. Code inserted
// this way maps back to the location of the code it replaces.
func Relocate(newNode, original *Node) *Node {
	return relocate(newNode, original.Loc)
}

func relocate(n *Node, loc Loc) *Node {
	var children []*Node
	if n.Children != nil {
		children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			children[i] = relocate(c, loc)
		}
	}

	cp := *n
	cp.Loc = loc
	cp.Children = children
	return &cp
}
