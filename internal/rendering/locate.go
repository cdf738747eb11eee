package rendering

import "github.com/jonathan/resumeai/internal/texdoc"

// FindMutableMarker returns the group a filler rewrites for the marker called name.
// Templates mention every marker at least twice: a declaration first, then the fill
// target. The second occurrence always wins, however many follow it. For a command the
// group is its argument list; for an environment it is the body.
func FindMutableMarker(doc *texdoc.Document, name string) (*texdoc.Group, error) {
	found := doc.FindAll(name)
	if len(found) < 2 {
		return nil, &TemplateStructureError{Marker: name, Found: len(found)}
	}

	switch n := found[1].(type) {
	case *texdoc.Command:
		if n.Args == nil {
			n.Args = &texdoc.Group{}
		}
		return n.Args, nil
	case *texdoc.Environment:
		return n.Body, nil
	}
	return nil, &TemplateStructureError{Marker: name, Found: len(found)}
}

// resolveMarkers looks up every marker up front so a broken template fails before any
// section is rendered.
func resolveMarkers(doc *texdoc.Document) (map[string]*texdoc.Group, error) {
	targets := make(map[string]*texdoc.Group, len(Markers))
	for _, name := range Markers {
		g, err := FindMutableMarker(doc, name)
		if err != nil {
			return nil, err
		}
		targets[name] = g
	}
	return targets, nil
}
