package rendering

import (
	"errors"
	"strings"
	"testing"

	"github.com/jonathan/resumeai/internal/texdoc"
	"github.com/jonathan/resumeai/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countCommands parses rendered output and counts commands called name.
func countCommands(t *testing.T, src, name string) int {
	t.Helper()
	doc, err := texdoc.Parse(src)
	require.NoError(t, err)
	return len(doc.FindAll(name))
}

func itemTexts(t *testing.T, src string) []string {
	t.Helper()
	doc, err := texdoc.Parse(src)
	require.NoError(t, err)
	var items []string
	for _, n := range doc.FindAll("resumeItem") {
		cmd := n.(*texdoc.Command)
		arg := cmd.Args.Children[0].(*texdoc.Group)
		items = append(items, texdoc.String(&texdoc.Group{Children: arg.Children}))
	}
	return items
}

func TestSplitSentences_Asymmetry(t *testing.T) {
	desc := "Led the team. Shipped v2. "

	assert.Equal(t, []string{"Led the team.", "Shipped v2.", "."}, splitSentences(desc, true))
	assert.Equal(t, []string{"Led the team.", "Shipped v2."}, splitSentences(desc, false))
}

func TestSplitSentences_NoDoubledPeriod(t *testing.T) {
	assert.Equal(t, []string{"Led the team.", "Shipped v2."}, splitSentences("Led the team. Shipped v2.", true))
	assert.Equal(t, []string{"One line."}, splitSentences("One line", false))
}

func TestFillExperience_KeepsEmptyFragment(t *testing.T) {
	g := &texdoc.Group{}
	err := fillExperience(g, []types.Experience{{
		Title: "Engineer", Company: "Acme", StartDate: "2020", EndDate: "Present",
		Description: "Led the team. Shipped v2. ",
	}})
	require.NoError(t, err)

	out := texdoc.String(g)
	assert.Contains(t, out, `\section{Experience}`)
	assert.Contains(t, out, `\resumeSubheading{Engineer}{2020 - Present}{Acme}{}`)
	assert.Equal(t, []string{"Led the team.", "Shipped v2.", "."}, itemTexts(t, out))
	assert.Equal(t, 1, countCommands(t, out, "resumeItemListStart"))
	assert.Equal(t, 1, countCommands(t, out, "resumeItemListEnd"))
}

func TestFillProjects_DropsEmptyFragment(t *testing.T) {
	g := &texdoc.Group{}
	err := fillProjects(g, []types.Project{{
		Name: "Shop", Skills: "React, Stripe", EndDate: "2023",
		Description: "Led the team. Shipped v2. ",
	}})
	require.NoError(t, err)

	out := texdoc.String(g)
	assert.Contains(t, out, `\resumeProjectHeading{\textbf{Shop} $|$ \emph{React, Stripe}}{2023}`)
	assert.Equal(t, []string{"Led the team.", "Shipped v2."}, itemTexts(t, out))
}

func TestFillProjects_OnlyEmptyFragmentsOmitsList(t *testing.T) {
	g := &texdoc.Group{}
	require.NoError(t, fillProjects(g, []types.Project{{Name: "A", Skills: "B", EndDate: "2023", Description: ". "}}))

	out := texdoc.String(g)
	assert.Equal(t, 0, countCommands(t, out, "resumeItemListStart"))
	assert.Equal(t, 1, countCommands(t, out, "resumeProjectHeading"))
}

func TestFillEducation_FourSlotsInOrder(t *testing.T) {
	g := &texdoc.Group{}
	err := fillEducation(g, []types.Education{
		{School: "First U", Degree: "BSc", StartDate: "2012", EndDate: "2016", Location: "Tanta"},
		{School: "Second U", Degree: "MSc", StartDate: "2016", EndDate: "2018"},
	})
	require.NoError(t, err)

	out := texdoc.String(g)
	assert.Contains(t, out, `\resumeEduSubheading{First U}{2012 - 2016}{BSc}{}`)
	assert.Less(t,
		strings.Index(out, "First U"),
		strings.Index(out, "Second U"))
	assert.Equal(t, 2, countCommands(t, out, "resumeEduSubheading"))
	assert.NotContains(t, out, "Tanta")
}

func TestFillEducation_MissingFieldLeavesGroupUntouched(t *testing.T) {
	g := texdoc.Brace(texdoc.Txt("original"))
	err := fillEducation(g, []types.Education{
		{School: "First U", Degree: "BSc", StartDate: "2012", EndDate: "2016"},
		{School: "Second U", Degree: "MSc", StartDate: "2016"},
	})
	require.Error(t, err)

	var fillErr *SectionFillError
	require.ErrorAs(t, err, &fillErr)
	assert.Equal(t, SectionEducation, fillErr.Section)
	assert.Equal(t, 1, fillErr.Index)

	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "end_date", missing.Field)

	assert.Equal(t, "{original}", texdoc.String(g))
}

func TestFillIdentity_Layout(t *testing.T) {
	g := &texdoc.Group{}
	err := fillIdentity(g, types.Identity{
		Name: "John Doe", Phone: "123", Email: "j@x.com",
		LinkedIn: "linkedin.com/in/jd", GitHub: "https://github.com/jd", Address: "123 Main St",
	})
	require.NoError(t, err)

	out := texdoc.String(g)
	assert.Contains(t, out, `\begin{center}`)
	assert.Contains(t, out, `{\Huge\scshape John Doe} \\ \vspace{1pt}`)
	assert.Contains(t, out, `\small \raisebox{-0.1\height}\faPhone\ 123 ~ `)
	assert.Contains(t, out, `\href{mailto:j@x.com}{\raisebox{-0.2\height}\faEnvelope\ \underline{j@x.com}}`)
	assert.Contains(t, out, `\href{https://linkedin.com/in/jd}{\raisebox{-0.2\height}\faLinkedin\ \underline{linkedin.com/in/jd}}`)
	assert.Contains(t, out, `\href{https://github.com/jd}{\raisebox{-0.2\height}\faGithub\ \underline{https://github.com/jd}}`)
	assert.Contains(t, out, `\vspace{-8pt}`)
	assert.Equal(t, 3, countCommands(t, out, "href"))
	assert.NotContains(t, out, "Main St")
}

func TestFillIdentity_SkipsMissingLinks(t *testing.T) {
	g := &texdoc.Group{}
	require.NoError(t, fillIdentity(g, types.Identity{Name: "A", Phone: "1"}))

	out := texdoc.String(g)
	assert.Equal(t, 0, countCommands(t, out, "href"))
	assert.NotContains(t, out, " ~ ")
}

func TestFillTechnicalSkills_OrderAndFormat(t *testing.T) {
	g := &texdoc.Group{}
	err := fillTechnicalSkills(g, types.SkillCategories{
		{Label: "Languages", Skills: []string{"Go", "Python"}},
		{Label: "Tools", Skills: []string{"Git"}},
	})
	require.NoError(t, err)

	out := texdoc.String(g)
	assert.Contains(t, out, `\section{Technical Skills}`)
	assert.Contains(t, out, `\textbf{Languages}{: Go, Python} \\`)
	assert.Contains(t, out, `\textbf{Tools}{: Git} \\`)
	assert.Less(t, strings.Index(out, "Languages"), strings.Index(out, "Tools"))
}

func TestFillTechnicalSkills_BlankLabel(t *testing.T) {
	err := fillTechnicalSkills(&texdoc.Group{}, types.SkillCategories{{Label: " ", Skills: []string{"Go"}}})
	var fillErr *SectionFillError
	require.ErrorAs(t, err, &fillErr)
	assert.Equal(t, SectionTechnicalSkills, fillErr.Section)
}

func TestFillSoftSkills(t *testing.T) {
	g := &texdoc.Group{}
	require.NoError(t, fillSoftSkills(g, []string{"Communication", "Leadership"}))

	out := texdoc.String(g)
	assert.Contains(t, out, `\section{Soft Skills}`)
	assert.Contains(t, out, `\emph{Communication, Leadership}`)
	assert.Equal(t, 1, countCommands(t, out, "emph"))
}

func TestFillSummary(t *testing.T) {
	g := texdoc.Brace(texdoc.Txt("placeholder text"))
	require.NoError(t, fillSummary(g, "Engineer with 5 years"))

	out := texdoc.String(g)
	assert.Equal(t, "{\\section{Summary}\nEngineer with 5 years\n}", out)
}

func TestRenderSection_ReplacesPreviousContent(t *testing.T) {
	g := &texdoc.Group{}
	require.NoError(t, fillSoftSkills(g, []string{"A"}))
	require.NoError(t, fillSoftSkills(g, []string{"B"}))

	out := texdoc.String(g)
	assert.NotContains(t, out, `\emph{A}`)
	assert.Contains(t, out, `\emph{B}`)
}
