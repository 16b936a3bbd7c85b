package resume

import (
	"sort"

	"github.com/mitchellh/mapstructure"
)

// PersonalDetails is the typed view of the well-known personal info keys.
type PersonalDetails struct {
	Name       string `mapstructure:"name" json:"Name"`
	Address    string `mapstructure:"address" json:"Address"`
	VisaStatus string `mapstructure:"visa_status" json:"Visa_Status"`
	Phone      string `mapstructure:"phone" json:"Phone"`
	Linkedin   string `mapstructure:"linkedin" json:"Linkedin"`
	Github     string `mapstructure:"github" json:"Github"`
}

// PersonalDetails returns the well-known personal info values and the sorted
// list of keys that are not part of PersonalDetails.
func (r *Resume) PersonalDetails() (PersonalDetails, []string) {
	// Validate already rejected personal info that does not decode.
	details, extra, _ := decodePersonalDetails(r.PersonalInfo)
	return details, extra
}

func decodePersonalDetails(info map[string]any) (PersonalDetails, []string, error) {
	var details PersonalDetails
	if len(info) == 0 {
		return details, nil, nil
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         &md,
		Result:           &details,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return details, nil, err
	}

	if err := decoder.Decode(info); err != nil {
		return details, nil, err
	}

	sort.Strings(md.Unused)

	return details, md.Unused, nil
}
