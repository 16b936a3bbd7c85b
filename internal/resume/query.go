package resume

import "strings"

const (
	TopicLogin           = "login"
	TopicExperience      = "experience"
	TopicEducation       = "education"
	TopicPersonalDetails = "personal details"
	TopicCertificates    = "certificates"
	TopicResearch        = "research"
	TopicSkills          = "skills"
	TopicObjective       = "objective"

	// NoRelevantData is returned under the "error" key for unknown topics.
	NoRelevantData = "No relevant data found"
)

// Topics lists the query keywords in match precedence order.
var Topics = []string{
	TopicLogin,
	TopicExperience,
	TopicEducation,
	TopicPersonalDetails,
	TopicCertificates,
	TopicResearch,
	TopicSkills,
	TopicObjective,
}

type ExperienceView struct {
	Position []string `json:"Position"`
	Company  []string `json:"Company"`
}

type EducationView struct {
	Institution []string `json:"Institution"`
	Degree      []string `json:"Degree"`
	Major       []string `json:"Major"`
}

type CertificationsView struct {
	Name   []string `json:"Name"`
	Issuer []string `json:"Issuing-Organisation"`
}

type ResearchView struct {
	Title       []string `json:"Title"`
	Institution []string `json:"Institution"`
}

type SkillsView struct {
	Skill     []string  `json:"Skill"`
	SkillType []*string `json:"Skill Type"`
}

// MatchTopic returns the first topic keyword contained in query, ignoring case.
// A query that mentions several topics resolves to the earliest one in Topics.
func MatchTopic(query string) (string, bool) {
	q := strings.ToLower(query)
	for _, topic := range Topics {
		if strings.Contains(q, topic) {
			return topic, true
		}
	}
	return "", false
}

// Query returns the projection of the resume relevant to query. It never
// fails: unknown topics produce an {"error": NoRelevantData} payload.
func (r *Resume) Query(query string) map[string]any {
	topic, ok := MatchTopic(query)
	if !ok {
		return map[string]any{"error": NoRelevantData}
	}

	switch topic {
	case TopicLogin:
		domains := make([]string, 0, len(r.Login))
		usernames := make([]string, 0, len(r.Login))
		passwords := make([]string, 0, len(r.Login))
		for _, l := range r.Login {
			domains = append(domains, l.Domain)
			usernames = append(usernames, l.UserName)
			passwords = append(passwords, l.Password)
		}
		return map[string]any{
			"Domain":   domains,
			"Username": usernames,
			"Password": passwords,
		}
	case TopicExperience:
		view := ExperienceView{
			Position: make([]string, 0, len(r.Experience)),
			Company:  make([]string, 0, len(r.Experience)),
		}
		for _, e := range r.Experience {
			view.Position = append(view.Position, e.Position)
			view.Company = append(view.Company, e.Company)
		}
		return map[string]any{"Summary": r.Summary(), "Experience": view}
	case TopicEducation:
		view := EducationView{
			Institution: make([]string, 0, len(r.Education)),
			Degree:      make([]string, 0, len(r.Education)),
			Major:       make([]string, 0, len(r.Education)),
		}
		for _, e := range r.Education {
			view.Institution = append(view.Institution, e.Institution)
			view.Degree = append(view.Degree, e.Degree)
			view.Major = append(view.Major, e.Major)
		}
		return map[string]any{"Summary": r.Summary(), "Education": view}
	case TopicPersonalDetails:
		details, _ := r.PersonalDetails()
		return map[string]any{"Summary": r.Summary(), "Personal Information": details}
	case TopicCertificates:
		view := CertificationsView{
			Name:   make([]string, 0, len(r.Certifications)),
			Issuer: make([]string, 0, len(r.Certifications)),
		}
		for _, c := range r.Certifications {
			view.Name = append(view.Name, c.Name)
			view.Issuer = append(view.Issuer, c.Issuer)
		}
		return map[string]any{"Summary": r.Summary(), "Certifications": view}
	case TopicResearch:
		view := ResearchView{
			Title:       make([]string, 0, len(r.ResearchWork)),
			Institution: make([]string, 0, len(r.ResearchWork)),
		}
		for _, w := range r.ResearchWork {
			view.Title = append(view.Title, w.Title)
			view.Institution = append(view.Institution, w.Institution)
		}
		return map[string]any{"Summary": r.Summary(), "Research Works": view}
	case TopicSkills:
		view := SkillsView{
			Skill:     make([]string, 0, len(r.Skills)),
			SkillType: make([]*string, 0, len(r.Skills)),
		}
		for _, s := range r.Skills {
			view.Skill = append(view.Skill, s.Skill)
			view.SkillType = append(view.SkillType, s.SkillType)
		}
		return map[string]any{"Summary": r.Summary(), "Skills": view}
	default:
		return map[string]any{"Objective": r.Objective}
	}
}
