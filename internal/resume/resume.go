package resume

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resume is the personal dataset the agent fills application forms with.
// It is loaded once and only read afterwards.
type Resume struct {
	PersonalInfo   map[string]any  `json:"personal_info"`
	Objective      string          `json:"objective"`
	Skills         []Skill         `json:"skills"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Certifications []Certification `json:"certifications"`
	ResearchWork   []ResearchWork  `json:"research_work"`
	Login          []Login         `json:"login"`
}

type Education struct {
	Institution string  `json:"institution"`
	Degree      string  `json:"degree"`
	Major       string  `json:"major"`
	Minor       *string `json:"minor"`
	StartYear   string  `json:"start_year"`
	EndYear     *string `json:"end_year"`
	Result      *string `json:"result"`
	Location    *string `json:"location"`
}

type Experience struct {
	Position     string   `json:"position"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	WorkType     string   `json:"work_type"`
	StartDate    string   `json:"start_date"`
	EndDate      *string  `json:"end_date"`
	Current      bool     `json:"current"`
	Achievements []string `json:"achievements"`
	Technologies []string `json:"technologies"`
}

type Certification struct {
	Name         string  `json:"name"`
	Issuer       string  `json:"issuer"`
	DateObtained string  `json:"date_obtained"`
	CredentialID *string `json:"credential_id"`
}

type ResearchWork struct {
	Title       string   `json:"title"`
	Institution string   `json:"institution"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Description string   `json:"description"`
	Outcomes    []string `json:"outcomes"`
}

type Skill struct {
	Skill       string  `json:"skill"`
	SkillType   *string `json:"skill_type"`
	Proficiency *string `json:"proficiency"`
}

// Login holds credentials for a job board domain.
type Login struct {
	Domain   string `json:"domain"`
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

// Parse decodes and validates a resume document.
func Parse(data []byte) (*Resume, error) {
	var r Resume
	if err := json.Unmarshal(data, &r); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &ValidationError{
				Field:  typeErr.Field,
				Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}
		}
		return nil, fmt.Errorf("decoding resume: %w", err)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	r.normalize()

	return &r, nil
}

// Load reads the resume document at path. Files ending in .yaml or .yml are
// read as YAML, anything else as JSON.
func Load(path string) (*Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume file %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// ParseYAML accepts the same document as Parse written in YAML.
func ParseYAML(data []byte) (*Resume, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding resume yaml: %w", err)
	}

	converted, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting resume yaml: %w", err)
	}

	return Parse(converted)
}

// JSON serializes the resume in the same shape Parse accepts.
func (r *Resume) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// normalize fills the optional lists so they serialize as [] instead of null.
func (r *Resume) normalize() {
	if r.PersonalInfo == nil {
		r.PersonalInfo = make(map[string]any)
	}

	for i := range r.Experience {
		if r.Experience[i].Achievements == nil {
			r.Experience[i].Achievements = []string{}
		}
		if r.Experience[i].Technologies == nil {
			r.Experience[i].Technologies = []string{}
		}
	}
}
