package texdoc

// Walk visits n and every node below it in document order. Returning false from fn
// skips the children of the node just visited.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Group:
		for _, child := range v.Children {
			Walk(child, fn)
		}
	case *Command:
		if v.Args != nil {
			Walk(v.Args, fn)
		}
	case *Environment:
		Walk(v.Begin, fn)
		Walk(v.Body, fn)
	}
}

// FindAll returns every command or environment called name, in document order.
func (d *Document) FindAll(name string) []Node {
	var found []Node
	Walk(d.Root, func(n Node) bool {
		switch v := n.(type) {
		case *Command:
			if v.Name == name {
				found = append(found, v)
			}
		case *Environment:
			if v.Name == name {
				found = append(found, v)
			}
		}
		return true
	})
	return found
}
