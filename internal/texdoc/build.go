package texdoc

// Cmd builds a command with the given argument groups.
func Cmd(name string, args ...*Group) *Command {
	g := &Group{}
	for _, a := range args {
		g.Append(a)
	}
	return &Command{Name: name, Args: g}
}

// Brace builds a {...} group.
func Brace(children ...Node) *Group {
	return &Group{Open: "{", Close: "}", Children: children}
}

// Bracket builds a [...] group.
func Bracket(children ...Node) *Group {
	return &Group{Open: "[", Close: "]", Children: children}
}

// Txt builds a text leaf.
func Txt(s string) *Text {
	return &Text{Value: s}
}

// Arg is shorthand for a brace group holding a single text leaf.
func Arg(s string) *Group {
	return Brace(Txt(s))
}

// Env builds \begin{name}...\end{name} around body.
func Env(name string, body ...Node) *Environment {
	return &Environment{
		Name:  name,
		Begin: Cmd("begin", Arg(name)),
		Body:  &Group{Children: body},
	}
}
