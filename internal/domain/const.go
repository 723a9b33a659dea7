package domain

const (
	// DateLayout is the storage and display layout of deed dates
	DateLayout = "2006-01-02"
	// InputDateLayout is the dd-MM-yyyy layout typed into the date cells
	InputDateLayout = "02-01-2006"

	// NilDate is displayed for a deed without a date
	NilDate = "Nil"

	// DeedsTable is the record store table holding deeds, used as the change event table name
	DeedsTable = "deeds"
)

// StandardPlaceholders are the tokens surfaced as dedicated deed fields rather than dynamic inputs
var StandardPlaceholders = []string{"deedType", "date", "documentNumber", "natureOfDoc"}
