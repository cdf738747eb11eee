package rendering

import (
	"reflect"
	"strings"
)

// EscapeLaTeX escapes special LaTeX characters in text
// Special characters: \ { } $ & % # ^ _ ~ < > |
//
// Every character is replaced in a single pass, so the backslashes introduced by one
// replacement are never escaped again. Escaping already-escaped text is not a no-op.
func EscapeLaTeX(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) * 2) // Pre-allocate space for potential escaping

	for _, r := range text {
		switch r {
		case '\\':
			result.WriteString(`\textbackslash{}`)
		case '{':
			result.WriteString(`\{`)
		case '}':
			result.WriteString(`\}`)
		case '$':
			result.WriteString(`\$`)
		case '&':
			result.WriteString(`\&`)
		case '%':
			result.WriteString(`\%`)
		case '#':
			result.WriteString(`\#`)
		case '^':
			result.WriteString(`\textasciicircum{}`)
		case '_':
			result.WriteString(`\_`)
		case '~':
			result.WriteString(`\textasciitilde{}`)
		case '<':
			result.WriteString(`\textless{}`)
		case '>':
			result.WriteString(`\textgreater{}`)
		case '|':
			result.WriteString(`\textbar{}`)
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

// EscapeDeep returns a copy of v in which every reachable string has been passed through
// EscapeLaTeX: struct fields, slice and array elements, map keys and values, and the
// targets of pointers and interfaces. v itself is left untouched. Unexported struct
// fields, functions and channels are copied as they are.
func EscapeDeep[T any](v T) T {
	src := reflect.ValueOf(&v).Elem()
	dst := reflect.New(src.Type()).Elem()
	e := deepEscaper{seen: make(map[visitKey]reflect.Value)}
	e.copy(dst, src)
	out, _ := dst.Interface().(T)
	return out
}

type visitKey struct {
	ptr uintptr
	typ reflect.Type
}

// deepEscaper remembers copied pointers and maps so that shared or cyclic references
// are copied once and keep their shape.
type deepEscaper struct {
	seen map[visitKey]reflect.Value
}

func (e deepEscaper) copy(dst, src reflect.Value) {
	if !src.IsValid() {
		return
	}

	switch src.Kind() {
	case reflect.String:
		dst.SetString(EscapeLaTeX(src.String()))

	case reflect.Pointer:
		if src.IsNil() {
			return
		}
		key := visitKey{src.Pointer(), src.Type()}
		if p, ok := e.seen[key]; ok {
			dst.Set(p)
			return
		}
		p := reflect.New(src.Type().Elem())
		e.seen[key] = p
		e.copy(p.Elem(), src.Elem())
		dst.Set(p)

	case reflect.Interface:
		if src.IsNil() {
			return
		}
		inner := src.Elem()
		c := reflect.New(inner.Type()).Elem()
		e.copy(c, inner)
		dst.Set(c)

	case reflect.Struct:
		dst.Set(src)
		for i := 0; i < src.NumField(); i++ {
			if f := dst.Field(i); f.CanSet() {
				e.copy(f, src.Field(i))
			}
		}

	case reflect.Slice:
		if src.IsNil() {
			return
		}
		s := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			e.copy(s.Index(i), src.Index(i))
		}
		dst.Set(s)

	case reflect.Array:
		for i := 0; i < src.Len(); i++ {
			e.copy(dst.Index(i), src.Index(i))
		}

	case reflect.Map:
		if src.IsNil() {
			return
		}
		key := visitKey{src.Pointer(), src.Type()}
		if m, ok := e.seen[key]; ok {
			dst.Set(m)
			return
		}
		m := reflect.MakeMapWithSize(src.Type(), src.Len())
		e.seen[key] = m
		iter := src.MapRange()
		for iter.Next() {
			k := reflect.New(src.Type().Key()).Elem()
			e.copy(k, iter.Key())
			v := reflect.New(src.Type().Elem()).Elem()
			e.copy(v, iter.Value())
			m.SetMapIndex(k, v)
		}
		dst.Set(m)

	default:
		dst.Set(src)
	}
}
