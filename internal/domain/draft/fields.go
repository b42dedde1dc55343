package draft

import "fmt"

type ProfileField string

const (
	ProfileName        ProfileField = "name"
	ProfileTitle       ProfileField = "title"
	ProfileDescription ProfileField = "description"
)

func ParseProfileField(s string) (ProfileField, error) {
	switch f := ProfileField(s); f {
	case ProfileName, ProfileTitle, ProfileDescription:
		return f, nil
	}
	return "", fmt.Errorf("unknown profile field %q", s)
}

type EntryField string

const (
	EntryPosition    EntryField = "position"
	EntryCompany     EntryField = "company"
	EntryStartDate   EntryField = "startDate"
	EntryEndDate     EntryField = "endDate"
	EntryDescription EntryField = "description"
)

func ParseEntryField(s string) (EntryField, error) {
	switch f := EntryField(s); f {
	case EntryPosition, EntryCompany, EntryStartDate, EntryEndDate, EntryDescription:
		return f, nil
	}
	return "", fmt.Errorf("unknown experience field %q", s)
}

var fieldLabels = map[string]string{
	"name":        "Name",
	"title":       "Title",
	"description": "Description",
	"position":    "Position",
	"company":     "Company",
	"startDate":   "Start date",
	"endDate":     "End date",
}
