package store

// Table describes one sheet/table of the backing store: its name and the
// ordered column set. Column positions are load-bearing for cell writes, so
// every read and write path resolves names through this single definition.
type Table struct {
	Name    string
	Columns []string
}

// Col returns the 1-based position of a column, or 0 when the name is not
// part of the table.
func (t Table) Col(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i + 1
		}
	}
	return 0
}

// Header returns the header row for the table.
func (t Table) Header() []string {
	header := make([]string, len(t.Columns))
	copy(header, t.Columns)
	return header
}

// Column names of the experiment records table.
const (
	ColID          = "ID_Univoco"
	ColProject     = "Project_Name"
	ColDate        = "Data"
	ColOperator    = "Operatore"
	ColTemperature = "Temperatura"
	ColPressure    = "Pressione"
	ColTagsJSON    = "Custom_Tags_JSON"
	ColAnimalID    = "ID_Animale"
	ColSyringe     = "Siringa"
	ColElectrode   = "Elettrodo"
	ColPumpTube    = "Tubo_Pompa"
	ColFalconSet   = "Falcon_Set"
	ColFalconID    = "Falcon_ID"
	ColTareWeight  = "Peso_Vuoto"
	ColFullWeight  = "Peso_Pieno"
	ColMinutes     = "Durata_Min"
	ColFlowRate    = "Flow_Rate"
	ColSMR1        = "SMR_1"
	ColSMR2        = "SMR_2"
	ColDeltaTorr   = "Delta_Torr"
	ColWatts       = "Watts"
	ColSex         = "Sex"
	ColBodyLength  = "Body_Length"
	ColHeadLength  = "Head_Length"
	ColNote        = "Note"
	ColDryWeight   = "Dry_Weight"
	ColState       = "Stato"
)

// RecordsTable is the fixed 27-column experiment records sheet.
var RecordsTable = Table{
	Name: "DB_Respirometria",
	Columns: []string{
		ColID, ColProject, ColDate, ColOperator,
		ColTemperature, ColPressure, ColTagsJSON,
		ColAnimalID, ColSyringe, ColElectrode, ColPumpTube,
		ColFalconSet, ColFalconID, ColTareWeight, ColFullWeight, ColMinutes, ColFlowRate,
		ColSMR1, ColSMR2, ColDeltaTorr, ColWatts,
		ColSex, ColBodyLength, ColHeadLength, ColNote, ColDryWeight, ColState,
	},
}

// UsersTable holds operator credentials.
var UsersTable = Table{
	Name:    "Users",
	Columns: []string{"Username", "Password", "Nome_Completo"},
}

// SessionsTable holds at most one active timer entry per operator.
var SessionsTable = Table{
	Name:    "Active_Sessions",
	Columns: []string{"Username", "StartTime", "Project"},
}
