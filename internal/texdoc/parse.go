package texdoc

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SyntaxError reports a structural problem found by a strict parse.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("latex syntax error at offset %d: %s", e.Offset, e.Message)
}

// ParseOption configures Parse.
type ParseOption func(*parser)

// Strict makes Parse fail on unbalanced delimiters and unterminated environments
// instead of preserving them verbatim.
func Strict() ParseOption {
	return func(p *parser) { p.strict = true }
}

// Parse builds a Document from LaTeX source. By default it is lenient: anything it
// cannot pair up is kept exactly as written so that serializing the result reproduces
// src byte for byte.
func Parse(src string, opts ...ParseOption) (*Document, error) {
	p := &parser{src: src}
	for _, opt := range opts {
		opt(p)
	}

	children, _ := p.parseSeq(scope{})
	if p.err != nil {
		return nil, p.err
	}
	return &Document{Root: &Group{Children: children}}, nil
}

type stopReason int

const (
	stopEOF stopReason = iota
	stopCloser
	stopOuter
	stopEnd
)

// scope describes what may terminate the sequence being parsed.
type scope struct {
	closer    byte // delimiter closing the current group, 0 for none
	inBrace   bool // an enclosing brace group is open
	inBracket bool // an enclosing optional argument is open
	env       string
}

func (s scope) braceChild() scope {
	return scope{closer: '}', inBrace: true}
}

func (s scope) bracketChild() scope {
	return scope{closer: ']', inBrace: s.inBrace || s.closer == '}', inBracket: true}
}

func (s scope) envBody(name string) scope {
	return scope{
		inBrace:   s.inBrace || s.closer == '}',
		inBracket: s.inBracket || s.closer == ']',
		env:       name,
	}
}

type parser struct {
	src    string
	pos    int
	strict bool
	err    error
}

func (p *parser) fail(offset int, format string, args ...any) {
	if p.strict && p.err == nil {
		p.err = &SyntaxError{Offset: offset, Message: fmt.Sprintf(format, args...)}
	}
}

func (p *parser) parseSeq(s scope) ([]Node, stopReason) {
	var nodes []Node
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, &Text{Value: text.String()})
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case s.closer != 0 && c == s.closer:
			flush()
			return nodes, stopCloser
		case c == '}' && s.inBrace:
			flush()
			return nodes, stopOuter
		case c == ']' && s.inBracket:
			flush()
			return nodes, stopOuter
		case c == '}':
			p.fail(p.pos, "unmatched '}'")
			text.WriteByte(c)
			p.pos++
		case c == '{':
			flush()
			nodes = append(nodes, p.parseGroup(s.braceChild(), "{", "}"))
		case c == '%':
			end := strings.IndexByte(p.src[p.pos:], '\n')
			if end < 0 {
				end = len(p.src) - p.pos
			}
			text.WriteString(p.src[p.pos : p.pos+end])
			p.pos += end
		case c == '\\':
			if s.env != "" && strings.HasPrefix(p.src[p.pos:], endTag(s.env)) {
				flush()
				return nodes, stopEnd
			}
			if p.pos+1 >= len(p.src) {
				p.fail(p.pos, "trailing backslash")
				text.WriteByte(c)
				p.pos++
				continue
			}
			flush()
			nodes = append(nodes, p.parseCommand(s))
		default:
			text.WriteByte(c)
			p.pos++
		}
	}
	flush()
	return nodes, stopEOF
}

// parseGroup parses a delimited group starting at the opening delimiter.
func (p *parser) parseGroup(s scope, open, close string) *Group {
	start := p.pos
	p.pos += len(open)
	children, stop := p.parseSeq(s)
	g := &Group{Open: open, Close: close, Children: children}
	if stop == stopCloser {
		p.pos += len(close)
	} else {
		g.Unclosed = true
		p.fail(start, "unclosed %q", open)
	}
	return g
}

func (p *parser) parseCommand(s scope) Node {
	p.pos++ // backslash
	start := p.pos
	var name string
	if isLetter(p.src[p.pos]) {
		for p.pos < len(p.src) && isLetter(p.src[p.pos]) {
			p.pos++
		}
		if p.pos < len(p.src) && p.src[p.pos] == '*' {
			p.pos++
		}
		name = p.src[start:p.pos]
	} else {
		_, size := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += size
		return &Command{Name: p.src[start:p.pos], Args: &Group{}}
	}

	cmd := &Command{Name: name, Args: &Group{}}
	p.parseArgs(cmd, s)

	if name == "begin" {
		if envName := argText(cmd, 0); envName != "" {
			return p.parseEnvironment(cmd, envName, s)
		}
	}
	return cmd
}

// parseArgs attaches every brace or bracket group that directly follows the command.
func (p *parser) parseArgs(cmd *Command, s scope) {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '{':
			cmd.Args.Append(p.parseGroup(s.braceChild(), "{", "}"))
		case '[':
			g := p.parseGroup(s.bracketChild(), "[", "]")
			cmd.Args.Append(g)
			if g.Unclosed {
				return
			}
		default:
			return
		}
	}
}

func (p *parser) parseEnvironment(begin *Command, name string, s scope) Node {
	start := p.pos
	children, stop := p.parseSeq(s.envBody(name))
	env := &Environment{Name: name, Begin: begin, Body: &Group{Children: children}}
	if stop == stopEnd {
		p.pos += len(endTag(name))
	} else {
		env.Unclosed = true
		p.fail(start, "environment %q is not closed", name)
	}
	return env
}

// argText returns the text of the i-th argument when it is a brace group holding a
// single text node.
func argText(cmd *Command, i int) string {
	if cmd.Args == nil || i >= cmd.Args.Len() {
		return ""
	}
	g, ok := cmd.Args.Children[i].(*Group)
	if !ok || g.Open != "{" || g.Unclosed || len(g.Children) != 1 {
		return ""
	}
	t, ok := g.Children[0].(*Text)
	if !ok {
		return ""
	}
	return strings.TrimSpace(t.Value)
}

func endTag(name string) string {
	return `\end{` + name + `}`
}
