package resume

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ValidationError reports a missing or mistyped resume field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("resume field %s: %s", e.Field, e.Reason)
}

type field struct {
	name  string
	value string
}

// Validate checks that every record carries its required fields. All
// violations are reported, combined with multierr.
func (r *Resume) Validate() error {
	var err error

	lists := []struct {
		name    string
		missing bool
	}{
		{"skills", r.Skills == nil},
		{"experience", r.Experience == nil},
		{"education", r.Education == nil},
		{"certifications", r.Certifications == nil},
		{"research_work", r.ResearchWork == nil},
		{"login", r.Login == nil},
	}
	for _, l := range lists {
		if l.missing {
			err = multierr.Append(err, &ValidationError{Field: l.name, Reason: "required list is missing"})
		}
	}

	if _, _, decodeErr := decodePersonalDetails(r.PersonalInfo); decodeErr != nil {
		err = multierr.Append(err, &ValidationError{Field: "personal_info", Reason: decodeErr.Error()})
	}

	for i, s := range r.Skills {
		err = multierr.Append(err, requireNonEmpty(fmt.Sprintf("skills[%d]", i),
			field{"skill", s.Skill},
		))
	}

	for i, e := range r.Experience {
		err = multierr.Append(err, requireNonEmpty(fmt.Sprintf("experience[%d]", i),
			field{"position", e.Position},
			field{"company", e.Company},
			field{"location", e.Location},
			field{"work_type", e.WorkType},
			field{"start_date", e.StartDate},
		))
	}

	for i, e := range r.Education {
		err = multierr.Append(err, requireNonEmpty(fmt.Sprintf("education[%d]", i),
			field{"institution", e.Institution},
			field{"degree", e.Degree},
			field{"major", e.Major},
			field{"start_year", e.StartYear},
		))
	}

	for i, c := range r.Certifications {
		err = multierr.Append(err, requireNonEmpty(fmt.Sprintf("certifications[%d]", i),
			field{"name", c.Name},
			field{"issuer", c.Issuer},
			field{"date_obtained", c.DateObtained},
		))
	}

	for i, w := range r.ResearchWork {
		prefix := fmt.Sprintf("research_work[%d]", i)
		err = multierr.Append(err, requireNonEmpty(prefix,
			field{"title", w.Title},
			field{"institution", w.Institution},
			field{"start_date", w.StartDate},
			field{"end_date", w.EndDate},
			field{"description", w.Description},
		))
		if w.Outcomes == nil {
			err = multierr.Append(err, &ValidationError{Field: prefix + ".outcomes", Reason: "required list is missing"})
		}
	}

	for i, l := range r.Login {
		err = multierr.Append(err, requireNonEmpty(fmt.Sprintf("login[%d]", i),
			field{"domain", l.Domain},
			field{"user_name", l.UserName},
			field{"password", l.Password},
		))
	}

	return err
}

func requireNonEmpty(prefix string, fields ...field) error {
	var err error
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			err = multierr.Append(err, &ValidationError{
				Field:  prefix + "." + f.name,
				Reason: "required field is empty",
			})
		}
	}
	return err
}
