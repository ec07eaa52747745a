package store

// Record is the typed view of one experiment row (one animal in a set).
// Numeric columns are decoded best-effort: a missing or non-numeric cell
// becomes 0. DryWeight is deliberately kept raw because "missing" is a
// parse failure, not a sentinel value, and a stored 0.0 is a legitimate
// weight.
type Record struct {
	ID          string
	Project     string
	Date        string
	Operator    string
	Temperature float64
	Pressure    float64
	TagsJSON    string
	AnimalID    string
	Syringe     string
	Electrode   string
	PumpTube    string
	FalconSet   string
	FalconID    string
	TareWeight  float64
	FullWeight  float64
	Minutes     float64
	FlowRate    float64
	SMR1        float64
	SMR2        float64
	DeltaTorr   float64
	Watts       float64
	Sex         string
	BodyLength  float64
	HeadLength  float64
	Note        string
	DryWeight   string
	State       string
}

// cell returns the raw cell of a (possibly short) row for a 1-based column.
func cell(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return row[col-1]
}
