package rendering

import (
	"strings"
	"testing"

	"github.com/jonathan/resumeai/internal/texdoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMutableMarker_AlwaysSecondOccurrence(t *testing.T) {
	for n := 2; n <= 5; n++ {
		var sb strings.Builder
		for i := 1; i <= n; i++ {
			sb.WriteString(`\marker{occurrence` + string(rune('0'+i)) + "}\n")
		}
		doc, err := texdoc.Parse(sb.String())
		require.NoError(t, err)

		g, err := FindMutableMarker(doc, "marker")
		require.NoError(t, err)
		assert.Equal(t, "{occurrence2}", texdoc.String(g), "with %d occurrences", n)
	}
}

func TestFindMutableMarker_DeclarationThenTarget(t *testing.T) {
	doc, err := texdoc.Parse("\\newcommand{\\eduPlaceholder}{}\n\\begin{document}\\eduPlaceholder{old}\\end{document}")
	require.NoError(t, err)

	g, err := FindMutableMarker(doc, "eduPlaceholder")
	require.NoError(t, err)
	g.Replace(texdoc.Cmd("section", texdoc.Arg("Education")))

	assert.Equal(t,
		"\\newcommand{\\eduPlaceholder}{}\n\\begin{document}\\eduPlaceholder\\section{Education}\\end{document}",
		doc.String())
}

func TestFindMutableMarker_TooFewOccurrences(t *testing.T) {
	for _, src := range []string{`no markers`, `\only{one}`} {
		doc, err := texdoc.Parse(src)
		require.NoError(t, err)

		_, err = FindMutableMarker(doc, "only")
		require.Error(t, err)
		var structErr *TemplateStructureError
		require.ErrorAs(t, err, &structErr)
		assert.Equal(t, "only", structErr.Marker)
	}
}

func TestFindMutableMarker_Environment(t *testing.T) {
	doc, err := texdoc.Parse(`\newenvironment{slot}{}{}\begin{slot}body\end{slot}`)
	require.NoError(t, err)

	// \newenvironment{slot} is not a match; only the environment itself counts.
	_, err = FindMutableMarker(doc, "slot")
	require.Error(t, err)

	doc, err = texdoc.Parse(`\begin{slot}first\end{slot}\begin{slot}second\end{slot}`)
	require.NoError(t, err)
	g, err := FindMutableMarker(doc, "slot")
	require.NoError(t, err)
	assert.Equal(t, "second", texdoc.String(g))
}

func TestResolveMarkers_DefaultTemplate(t *testing.T) {
	doc, err := loadTemplate("")
	require.NoError(t, err)

	targets, err := resolveMarkers(doc)
	require.NoError(t, err)
	assert.Len(t, targets, len(Markers))
}

func TestDefaultTemplate_RoundTrip(t *testing.T) {
	doc, err := texdoc.Parse(DefaultTemplate())
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate(), doc.String())
}

func TestDefaultTemplate_NeedsLenientParse(t *testing.T) {
	// List macros open an itemize environment that a different macro closes.
	_, err := texdoc.Parse(DefaultTemplate(), texdoc.Strict())
	var syntaxErr *texdoc.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}
