package rendering

import (
	"strings"

	"github.com/jonathan/resumeai/internal/texdoc"
	"github.com/jonathan/resumeai/internal/types"
)

// Section names used in SectionFillError.
const (
	SectionIdentity        = "identity"
	SectionSummary         = "summary"
	SectionEducation       = "education"
	SectionExperience      = "experience"
	SectionProjects        = "projects"
	SectionTechnicalSkills = "technical_skills"
	SectionSoftSkills      = "soft_skills"
)

type nodes = []texdoc.Node

// renderSection builds the nodes of every item and only then swaps them, wrapped, into
// target. A failing item leaves target untouched.
func renderSection[T any](target *texdoc.Group, section string, items []T, build func(T) (nodes, error), wrap func(nodes) nodes) error {
	var body nodes
	for i, item := range items {
		built, err := build(item)
		if err != nil {
			return &SectionFillError{Section: section, Index: i, Cause: err}
		}
		body = append(body, built...)
	}
	if wrap != nil {
		body = wrap(body)
	}
	target.Replace(body...)
	return nil
}

func fillIdentity(target *texdoc.Group, id types.Identity) error {
	return renderSection(target, SectionIdentity, []types.Identity{id}, identityNodes, nil)
}

func fillSummary(target *texdoc.Group, summary string) error {
	return renderSection(target, SectionSummary, []string{summary}, func(s string) (nodes, error) {
		return nodes{texdoc.Cmd("section", texdoc.Arg("Summary")), texdoc.Txt("\n" + s + "\n")}, nil
	}, nil)
}

func fillEducation(target *texdoc.Group, entries []types.Education) error {
	return renderSection(target, SectionEducation, entries, educationNodes, subHeadingList("Education"))
}

func fillExperience(target *texdoc.Group, entries []types.Experience) error {
	return renderSection(target, SectionExperience, entries, experienceNodes, subHeadingList("Experience"))
}

func fillProjects(target *texdoc.Group, entries []types.Project) error {
	return renderSection(target, SectionProjects, entries, projectNodes, subHeadingList("Projects"))
}

func fillTechnicalSkills(target *texdoc.Group, categories types.SkillCategories) error {
	return renderSection(target, SectionTechnicalSkills, categories, skillCategoryNodes, skillsList("Technical Skills"))
}

func fillSoftSkills(target *texdoc.Group, skills []string) error {
	return renderSection(target, SectionSoftSkills, [][]string{skills}, func(s []string) (nodes, error) {
		return nodes{texdoc.Txt("\n      "), texdoc.Cmd("emph", texdoc.Arg(strings.Join(s, ", ")))}, nil
	}, skillsList("Soft Skills"))
}

func identityNodes(id types.Identity) (nodes, error) {
	if err := required(field{"name", id.Name}); err != nil {
		return nil, err
	}

	var contact nodes
	add := func(parts ...texdoc.Node) {
		if len(contact) > 0 {
			contact = append(contact, texdoc.Txt(" ~ "))
		}
		contact = append(contact, parts...)
	}
	if id.Phone != "" {
		add(raisebox("-0.1"), texdoc.Cmd("faPhone"), texdoc.Cmd(" "), texdoc.Txt(id.Phone))
	}
	if id.Email != "" {
		add(link("mailto:"+id.Email, "faEnvelope", id.Email))
	}
	if id.LinkedIn != "" {
		add(link(withScheme(id.LinkedIn), "faLinkedin", id.LinkedIn))
	}
	if id.GitHub != "" {
		add(link(withScheme(id.GitHub), "faGithub", id.GitHub))
	}

	body := nodes{
		texdoc.Txt("\n    "),
		texdoc.Brace(texdoc.Cmd("Huge"), texdoc.Cmd("scshape"), texdoc.Txt(" "+id.Name)),
		texdoc.Txt(" "), texdoc.Cmd(`\`), texdoc.Txt(" "),
		texdoc.Cmd("vspace", texdoc.Arg("1pt")),
		texdoc.Txt("\n    "), texdoc.Cmd("small"), texdoc.Txt(" "),
	}
	body = append(body, contact...)
	body = append(body, texdoc.Txt("\n    "), texdoc.Cmd("vspace", texdoc.Arg("-8pt")), texdoc.Txt("\n"))
	return nodes{texdoc.Env("center", body...)}, nil
}

func educationNodes(e types.Education) (nodes, error) {
	err := required(
		field{"school", e.School},
		field{"degree", e.Degree},
		field{"start_date", e.StartDate.String()},
		field{"end_date", e.EndDate.String()},
	)
	if err != nil {
		return nil, err
	}
	return nodes{
		texdoc.Txt("\n    "),
		texdoc.Cmd("resumeEduSubheading",
			texdoc.Arg(e.School),
			texdoc.Arg(dateRange(e.StartDate, e.EndDate)),
			texdoc.Arg(e.Degree),
			texdoc.Arg(""),
		),
	}, nil
}

func experienceNodes(e types.Experience) (nodes, error) {
	err := required(
		field{"title", e.Title},
		field{"company", e.Company},
		field{"start_date", e.StartDate.String()},
		field{"end_date", e.EndDate.String()},
		field{"description", e.Description},
	)
	if err != nil {
		return nil, err
	}
	heading := texdoc.Cmd("resumeSubheading",
		texdoc.Arg(e.Title),
		texdoc.Arg(dateRange(e.StartDate, e.EndDate)),
		texdoc.Arg(e.Company),
		texdoc.Arg(""),
	)
	return append(nodes{texdoc.Txt("\n    "), heading}, itemList(splitSentences(e.Description, true))...), nil
}

func projectNodes(p types.Project) (nodes, error) {
	err := required(
		field{"name", p.Name},
		field{"skills", p.Skills},
		field{"description", p.Description},
		field{"end_date", p.EndDate.String()},
	)
	if err != nil {
		return nil, err
	}
	heading := texdoc.Cmd("resumeProjectHeading",
		texdoc.Brace(
			texdoc.Cmd("textbf", texdoc.Arg(p.Name)),
			texdoc.Txt(" $|$ "),
			texdoc.Cmd("emph", texdoc.Arg(p.Skills)),
		),
		texdoc.Arg(p.EndDate.String()),
	)
	return append(nodes{texdoc.Txt("\n    "), heading}, itemList(splitSentences(p.Description, false))...), nil
}

func skillCategoryNodes(c types.SkillCategory) (nodes, error) {
	if err := required(field{"label", c.Label}); err != nil {
		return nil, err
	}
	return nodes{
		texdoc.Txt("\n      "),
		texdoc.Cmd("textbf", texdoc.Arg(c.Label)),
		texdoc.Brace(texdoc.Txt(": " + strings.Join(c.Skills, ", "))),
		texdoc.Txt(" "),
		texdoc.Cmd(`\`),
	}, nil
}

// splitSentences breaks a description into bullet items on ". ", ending each with a
// period. Experience keeps empty fragments (a trailing ". " yields a bare "." item);
// projects drop them.
func splitSentences(description string, keepEmpty bool) []string {
	var items []string
	for _, frag := range strings.Split(description, ". ") {
		if !keepEmpty && strings.TrimSpace(frag) == "" {
			continue
		}
		if !strings.HasSuffix(frag, ".") {
			frag += "."
		}
		items = append(items, frag)
	}
	return items
}

func itemList(items []string) nodes {
	if len(items) == 0 {
		return nil
	}
	out := nodes{texdoc.Txt("\n      "), texdoc.Cmd("resumeItemListStart")}
	for _, item := range items {
		out = append(out, texdoc.Txt("\n        "), texdoc.Cmd("resumeItem", texdoc.Arg(item)))
	}
	return append(out, texdoc.Txt("\n      "), texdoc.Cmd("resumeItemListEnd"))
}

func subHeadingList(title string) func(nodes) nodes {
	return func(body nodes) nodes {
		out := nodes{
			texdoc.Cmd("section", texdoc.Arg(title)),
			texdoc.Txt("\n  "), texdoc.Cmd("resumeSubHeadingListStart"),
		}
		out = append(out, body...)
		return append(out, texdoc.Txt("\n  "), texdoc.Cmd("resumeSubHeadingListEnd"), texdoc.Txt("\n"))
	}
}

func skillsList(title string) func(nodes) nodes {
	return func(body nodes) nodes {
		item := texdoc.Cmd("item", texdoc.Brace(append(body, texdoc.Txt("\n    "))...))
		return nodes{
			texdoc.Cmd("section", texdoc.Arg(title)),
			texdoc.Txt("\n  "), texdoc.Cmd("resumeSubHeadingListStart"),
			texdoc.Txt("\n    "), texdoc.Cmd("small", texdoc.Brace(item)),
			texdoc.Txt("\n  "), texdoc.Cmd("resumeSubHeadingListEnd"), texdoc.Txt("\n"),
		}
	}
}

func raisebox(offset string) *texdoc.Command {
	return texdoc.Cmd("raisebox", texdoc.Brace(texdoc.Txt(offset), texdoc.Cmd("height")))
}

func link(href, icon, display string) *texdoc.Command {
	return texdoc.Cmd("href",
		texdoc.Arg(href),
		texdoc.Brace(raisebox("-0.2"), texdoc.Cmd(icon), texdoc.Cmd(" "), texdoc.Cmd("underline", texdoc.Arg(display))),
	)
}

func withScheme(u string) string {
	if strings.Contains(u, "://") {
		return u
	}
	return "https://" + u
}

func dateRange(start, end types.FlexString) string {
	return start.String() + " - " + end.String()
}

type field struct {
	name  string
	value string
}

func required(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &MissingFieldError{Field: f.name}
		}
	}
	return nil
}
