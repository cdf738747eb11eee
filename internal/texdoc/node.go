// Package texdoc parses LaTeX source into a mutable tree of commands, groups and text,
// and serializes it back without disturbing anything that was not edited.
package texdoc

import "strings"

// Node is any element of a parsed document.
type Node interface {
	write(sb *strings.Builder)
}

// Text is a literal run of source: prose, whitespace, comments, or anything the
// parser chose to keep verbatim.
type Text struct {
	Value string
}

// Group is an ordered, mutable sequence of nodes. Open and Close hold the delimiters
// ("{" "}" or "[" "]"); both are empty for the bare argument list of a Command and for
// the document root.
type Group struct {
	Open     string
	Close    string
	Children []Node
	// Unclosed is set when the source ended before the closing delimiter was seen.
	Unclosed bool
}

// Command is a control sequence such as \textbf or \\ together with the argument
// groups written immediately after it.
type Command struct {
	Name string
	Args *Group
}

// Environment is a \begin{name} ... \end{name} block.
type Environment struct {
	Name  string
	Begin *Command
	Body  *Group
	// Unclosed is set when no matching \end{name} was found.
	Unclosed bool
}

// Document is a parsed template.
type Document struct {
	Root *Group
}

// String serializes the document.
func (d *Document) String() string {
	var sb strings.Builder
	d.Root.write(&sb)
	return sb.String()
}

// Clear removes all children.
func (g *Group) Clear() {
	g.Children = g.Children[:0]
}

// Append adds nodes to the end of the group.
func (g *Group) Append(nodes ...Node) {
	g.Children = append(g.Children, nodes...)
}

// Replace swaps the group's children for nodes.
func (g *Group) Replace(nodes ...Node) {
	g.Children = append([]Node(nil), nodes...)
}

// Len returns the number of children.
func (g *Group) Len() int {
	return len(g.Children)
}

// Nodes returns the children. The slice is shared with the group.
func (g *Group) Nodes() []Node {
	return g.Children
}

// String serializes a single node.
func String(n Node) string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (t *Text) write(sb *strings.Builder) {
	sb.WriteString(t.Value)
}

func (g *Group) write(sb *strings.Builder) {
	sb.WriteString(g.Open)
	writeSeq(sb, g.Children)
	if !g.Unclosed {
		sb.WriteString(g.Close)
	}
}

func (c *Command) write(sb *strings.Builder) {
	sb.WriteByte('\\')
	sb.WriteString(c.Name)
	if c.Args == nil || c.Args.Len() == 0 {
		return
	}
	if needsSeparator(&Command{Name: c.Name}, c.Args.Children[0]) {
		sb.WriteByte(' ')
	}
	writeSeq(sb, c.Args.Children)
}

func (e *Environment) write(sb *strings.Builder) {
	e.Begin.write(sb)
	e.Body.write(sb)
	if !e.Unclosed {
		sb.WriteString(`\end{`)
		sb.WriteString(e.Name)
		sb.WriteByte('}')
	}
}

// writeSeq writes nodes in order. A letter-named command with no arguments that is
// followed by text starting with a letter gets a separating space, otherwise the two
// would fuse into a different control word. Parsed trees never contain that pairing,
// so round trips are unaffected.
func writeSeq(sb *strings.Builder, nodes []Node) {
	for i, n := range nodes {
		if i > 0 && needsSeparator(nodes[i-1], n) {
			sb.WriteByte(' ')
		}
		n.write(sb)
	}
}

func needsSeparator(prev, next Node) bool {
	cmd, ok := prev.(*Command)
	if !ok || (cmd.Args != nil && cmd.Args.Len() > 0) || cmd.Name == "" {
		return false
	}
	if !isLetter(cmd.Name[len(cmd.Name)-1]) {
		return false
	}
	txt, ok := next.(*Text)
	return ok && txt.Value != "" && isLetter(txt.Value[0])
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
