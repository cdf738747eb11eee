// Package types provides type definitions for structured data used throughout the resumeai service.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Resume is the payload accepted by /create-resume and the render command.
type Resume struct {
	Information     Identity        `json:"information" yaml:"information" validate:"required"`
	Education       []Education     `json:"education,omitempty" yaml:"education,omitempty"`
	Projects        []Project       `json:"projects,omitempty" yaml:"projects,omitempty"`
	Experience      []Experience    `json:"experience,omitempty" yaml:"experience,omitempty"`
	TechnicalSkills SkillCategories `json:"technical_skills,omitempty" yaml:"technical_skills,omitempty"`
	SoftSkills      []string        `json:"soft_skills,omitempty" yaml:"soft_skills,omitempty"`
	OutputFormat    OutputFormat    `json:"output_format,omitempty" yaml:"output_format,omitempty" validate:"omitempty,oneof=pdf tex both"`
}

// Identity is the contact block at the top of the résumé.
type Identity struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone    string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address  string `json:"address,omitempty" yaml:"address,omitempty"`
	LinkedIn string `json:"linkedin,omitempty" yaml:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty" yaml:"github,omitempty"`
	Summary  string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// PopulatedFields counts the identity fields that carry a non-blank value.
func (i Identity) PopulatedFields() int {
	n := 0
	for _, v := range []string{i.Name, i.Email, i.Phone, i.Address, i.LinkedIn, i.GitHub, i.Summary} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// Education is one school entry.
type Education struct {
	School    string     `json:"school" yaml:"school"`
	Degree    string     `json:"degree" yaml:"degree"`
	StartDate FlexString `json:"start_date" yaml:"start_date"`
	EndDate   FlexString `json:"end_date" yaml:"end_date"`
	Location  string     `json:"location,omitempty" yaml:"location,omitempty"`
	GPA       FlexString `json:"gpa,omitempty" yaml:"gpa,omitempty"`
}

// Experience is one position held.
type Experience struct {
	Title       string     `json:"title" yaml:"title"`
	Company     string     `json:"company" yaml:"company"`
	StartDate   FlexString `json:"start_date" yaml:"start_date"`
	EndDate     FlexString `json:"end_date" yaml:"end_date"`
	Description string     `json:"description" yaml:"description"`
}

// Project is one portfolio entry. Skills is a free-form, already comma-joined list.
type Project struct {
	Name        string     `json:"name" yaml:"name"`
	Skills      string     `json:"skills" yaml:"skills"`
	Description string     `json:"description" yaml:"description"`
	EndDate     FlexString `json:"end_date" yaml:"end_date"`
}

// Validate validates the Resume using the validator.
func (r *Resume) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// OutputFormat selects which artifacts /create-resume returns.
type OutputFormat string

const (
	// FormatPDF returns only the compiled document.
	FormatPDF OutputFormat = "pdf"
	// FormatTeX returns only the LaTeX source.
	FormatTeX OutputFormat = "tex"
	// FormatBoth returns source and compiled document.
	FormatBoth OutputFormat = "both"
)

// OrDefault returns f, or FormatPDF when f is empty.
func (f OutputFormat) OrDefault() OutputFormat {
	if f == "" {
		return FormatPDF
	}
	return f
}

// Valid reports whether f is one of the known formats.
func (f OutputFormat) Valid() bool {
	switch f {
	case FormatPDF, FormatTeX, FormatBoth:
		return true
	}
	return false
}

// WantsSource reports whether the LaTeX source should be returned.
func (f OutputFormat) WantsSource() bool {
	return f == FormatTeX || f == FormatBoth
}

// WantsCompiled reports whether the document must be compiled.
func (f OutputFormat) WantsCompiled() bool {
	return f == FormatPDF || f == FormatBoth
}

// FlexString is a string that also accepts bare numbers on input, so that years such as
// 2020 can be written without quotes.
type FlexString string

func (s FlexString) String() string {
	return string(s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = FlexString(num.String())
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *FlexString) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", value.Line)
	}
	if value.Tag == "!!null" {
		*s = ""
		return nil
	}
	*s = FlexString(value.Value)
	return nil
}

// SkillCategory is one labelled group of technical skills.
type SkillCategory struct {
	Label  string
	Skills []string
}

// SkillCategories is a label → skills mapping that keeps the order in which the
// categories were written.
type SkillCategories []SkillCategory

// UnmarshalJSON decodes a JSON object, preserving key order.
func (c *SkillCategories) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("technical_skills: expected an object")
	}

	var out SkillCategories
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("technical_skills: expected a string key")
		}
		var skills []string
		if err := dec.Decode(&skills); err != nil {
			return fmt.Errorf("technical_skills[%q]: %w", label, err)
		}
		out = append(out, SkillCategory{Label: label, Skills: skills})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

// MarshalJSON encodes the categories as an ordered JSON object.
func (c SkillCategories) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(cat.Label))
		buf.WriteByte(':')
		skills := cat.Skills
		if skills == nil {
			skills = []string{}
		}
		encoded, err := json.Marshal(skills)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a YAML mapping, preserving key order.
func (c *SkillCategories) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: technical_skills must be a mapping", value.Line)
	}
	out := make(SkillCategories, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		var skills []string
		if err := val.Decode(&skills); err != nil {
			return fmt.Errorf("technical_skills[%q]: %w", key.Value, err)
		}
		out = append(out, SkillCategory{Label: key.Value, Skills: skills})
	}
	*c = out
	return nil
}
