package resume

import (
	"fmt"
	"strings"
)

const (
	present            = "Present"
	otherSkills        = "Other"
	credentialOnDemand = "Produced on Request"
)

// Summary renders the resume as a flat, human readable digest for the agent.
func (r *Resume) Summary() string {
	sections := r.personalSection()

	sections = append(sections, "\nObjective:\n"+r.Objective)

	sections = append(sections, "\nProfessional Skills:")
	categories, grouped := groupSkills(r.Skills)
	for _, category := range categories {
		sections = append(sections, fmt.Sprintf("\n%s - %s", category, strings.Join(grouped[category], ", ")))
	}

	sections = append(sections, "\nProfessional Experience:")
	for _, e := range r.Experience {
		var b strings.Builder
		fmt.Fprintf(&b, "\n%s @ %s (%s)", e.Position, e.Company, e.Duration())
		fmt.Fprintf(&b, "\nLocation: %s @ %s", e.Location, e.WorkType)
		fmt.Fprintf(&b, "\nTechnologies: %s", strings.Join(e.Technologies, ", "))
		b.WriteString("\nAchievements:")
		for _, a := range e.Achievements {
			fmt.Fprintf(&b, "\n  • %s", a)
		}
		sections = append(sections, b.String())
	}

	sections = append(sections, "\nEducation:")
	for _, e := range r.Education {
		var b strings.Builder
		fmt.Fprintf(&b, "\n%s Majoring in %s", e.Degree, e.Major)
		if e.Minor != nil && *e.Minor != "" {
			fmt.Fprintf(&b, " and Minoring in %s", *e.Minor)
		}
		fmt.Fprintf(&b, "\n%s (%s)", e.Institution, e.Duration())
		if e.Result != nil && *e.Result != "" {
			fmt.Fprintf(&b, "\nResult: %s", *e.Result)
		}
		sections = append(sections, b.String())
	}

	sections = append(sections, "\nCertification:")
	for _, c := range r.Certifications {
		credential := credentialOnDemand
		if c.CredentialID != nil && *c.CredentialID != "" {
			credential = *c.CredentialID
		}
		sections = append(sections, fmt.Sprintf("\nTitle: %s\nIssuing Organisation: %s\nIssue Date: %s\nCredential ID: %s",
			c.Name, c.Issuer, c.DateObtained, credential))
	}

	sections = append(sections, "\nResearch Work:")
	for _, w := range r.ResearchWork {
		sections = append(sections, fmt.Sprintf("\nTitle: %s\nInstitution: %s\nDescription: %s",
			w.Title, w.Institution, w.Description))
	}

	return strings.Join(sections, "\n")
}

// Duration renders "start - end", or "start - Present" for an open-ended role.
func (e Experience) Duration() string {
	if e.EndDate != nil && *e.EndDate != "" {
		return fmt.Sprintf("%s - %s", e.StartDate, *e.EndDate)
	}
	return fmt.Sprintf("%s - %s", e.StartDate, present)
}

// Duration renders "start - end", or the bare start year when unfinished.
func (e Education) Duration() string {
	if e.EndYear != nil && *e.EndYear != "" {
		return fmt.Sprintf("%s - %s", e.StartYear, *e.EndYear)
	}
	return e.StartYear
}

func (r *Resume) personalSection() []string {
	details, extra := r.PersonalDetails()

	var lines []string
	if details.Name != "" {
		lines = append(lines, "Name: "+details.Name)
	}
	if details.Address != "" {
		lines = append(lines, "Location: "+details.Address)
	}
	if details.VisaStatus != "" {
		lines = append(lines, "Visa-Status: "+details.VisaStatus)
	}

	var contacts []string
	for _, c := range []string{details.Phone, details.Linkedin, details.Github} {
		if c != "" {
			contacts = append(contacts, c)
		}
	}
	if len(contacts) > 0 {
		lines = append(lines, "Contact: "+strings.Join(contacts, " | "))
	}

	for _, key := range extra {
		lines = append(lines, fmt.Sprintf("%s: %v", key, r.PersonalInfo[key]))
	}

	return lines
}

// groupSkills groups skill names by category, keeping first-appearance order.
func groupSkills(skills []Skill) ([]string, map[string][]string) {
	var order []string
	grouped := make(map[string][]string)
	for _, s := range skills {
		category := otherSkills
		if s.SkillType != nil && *s.SkillType != "" {
			category = *s.SkillType
		}
		if _, ok := grouped[category]; !ok {
			order = append(order, category)
		}
		grouped[category] = append(grouped[category], s.Skill)
	}
	return order, grouped
}
