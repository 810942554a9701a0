package export

// Record is one normalized appointment row of an export file. All fields
// are trimmed; missing columns come through as empty strings.
type Record struct {
	UnitCode           string
	FacilityName       string
	PractitionerName   string
	Specialty          string // upper-cased
	ScheduledDate      string // DD/MM/YYYY as exported
	PatientCode        string
	SubscriberID       string
	PatientName        string
	Phone              string
	CellPhone          string
	ContactPhone       string
	VisitReason        string
	ScheduledTime      string // HH:MM, trailing seconds cut
	InclusionTS        string // DD/MM/YYYY[ HH:MM:SS]
	FacilityComplement string
	FacilityNumber     string
	Municipality       string // title-cased
	District           string
	Street             string
}

// Stats summarizes one parser run
type Stats struct {
	Rows              int // data rows read, header excluded
	Records           int // rows that passed validation
	SkippedEmpty      int // rows with every field empty
	SkippedMissingKey int // rows missing subscriber id, inclusion timestamp or facility name
}
