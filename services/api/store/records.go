package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/marebio/respirolab/services/api/calc"
	"github.com/marebio/respirolab/services/api/logger"
)

// Records is the typed layer over the experiment table. It owns the
// row<->Record codec and the locate-by-identity write path; all field
// positions resolve through RecordsTable.
type Records struct {
	backend Backend
	log     *logger.Logger
}

// NewRecords wraps a backend with the typed record operations.
func NewRecords(backend Backend, log *logger.Logger) *Records {
	return &Records{backend: backend, log: log.With("component", "records")}
}

// Backend exposes the underlying raw port (session tracker and auth share it).
func (r *Records) Backend() Backend {
	return r.backend
}

// All returns every experiment record in sheet order.
func (r *Records) All(ctx context.Context) ([]Record, error) {
	rows, err := r.backend.Rows(ctx, RecordsTable.Name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", RecordsTable.Name, err)
	}
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		records = append(records, r.decode(row))
	}
	return records, nil
}

// Append adds one row per record after the last existing row.
func (r *Records) Append(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, encode(rec))
	}
	if err := r.backend.AppendRows(ctx, RecordsTable.Name, rows); err != nil {
		return fmt.Errorf("append %d rows: %w", len(rows), err)
	}
	return nil
}

// UpdateFields locates the row holding the given identity and writes each
// named field individually, in a stable column order. The identity column
// itself is never writable. Returns ErrRowNotFound when the identity is
// absent (caller decides whether to skip or fail).
func (r *Records) UpdateFields(ctx context.Context, id string, fields map[string]string) error {
	for name := range fields {
		if name == ColID {
			return fmt.Errorf("field %s is immutable", ColID)
		}
		if RecordsTable.Col(name) == 0 {
			return fmt.Errorf("unknown field %s", name)
		}
	}
	row, err := r.backend.FindRow(ctx, RecordsTable.Name, RecordsTable.Col(ColID), id)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return RecordsTable.Col(names[i]) < RecordsTable.Col(names[j])
	})
	for _, name := range names {
		if err := r.backend.UpdateCell(ctx, RecordsTable.Name, row, RecordsTable.Col(name), fields[name]); err != nil {
			return fmt.Errorf("update %s of %s: %w", name, id, err)
		}
	}
	return nil
}

// Projects returns the sorted distinct project names seen in the table.
func (r *Records) Projects(ctx context.Context) ([]string, error) {
	records, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec.Project != "" {
			seen[rec.Project] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *Records) decode(row []string) Record {
	get := func(name string) string { return cell(row, RecordsTable.Col(name)) }
	num := func(name string) float64 { return r.coerce(name, get(name)) }
	return Record{
		ID:          get(ColID),
		Project:     get(ColProject),
		Date:        get(ColDate),
		Operator:    get(ColOperator),
		Temperature: num(ColTemperature),
		Pressure:    num(ColPressure),
		TagsJSON:    get(ColTagsJSON),
		AnimalID:    get(ColAnimalID),
		Syringe:     get(ColSyringe),
		Electrode:   get(ColElectrode),
		PumpTube:    get(ColPumpTube),
		FalconSet:   get(ColFalconSet),
		FalconID:    get(ColFalconID),
		TareWeight:  num(ColTareWeight),
		FullWeight:  num(ColFullWeight),
		Minutes:     num(ColMinutes),
		FlowRate:    num(ColFlowRate),
		SMR1:        num(ColSMR1),
		SMR2:        num(ColSMR2),
		DeltaTorr:   num(ColDeltaTorr),
		Watts:       num(ColWatts),
		Sex:         get(ColSex),
		BodyLength:  num(ColBodyLength),
		HeadLength:  num(ColHeadLength),
		Note:        get(ColNote),
		DryWeight:   get(ColDryWeight),
		State:       get(ColState),
	}
}

// coerce is the centralized parse-or-default step: non-numeric cells become
// 0, with a warning when the cell actually held something.
func (r *Records) coerce(column, raw string) float64 {
	v, err := calc.ParseFloat(raw)
	if err != nil {
		if strings.TrimSpace(raw) != "" {
			r.log.Warn("non-numeric cell treated as zero", "column", column, "raw", raw)
		}
		return 0
	}
	return v
}

func encode(rec Record) []string {
	row := make([]string, len(RecordsTable.Columns))
	set := func(name, value string) { row[RecordsTable.Col(name)-1] = value }
	setf := func(name string, value float64) { set(name, calc.FormatFloat(value)) }
	set(ColID, rec.ID)
	set(ColProject, rec.Project)
	set(ColDate, rec.Date)
	set(ColOperator, rec.Operator)
	setf(ColTemperature, rec.Temperature)
	setf(ColPressure, rec.Pressure)
	set(ColTagsJSON, rec.TagsJSON)
	set(ColAnimalID, rec.AnimalID)
	set(ColSyringe, rec.Syringe)
	set(ColElectrode, rec.Electrode)
	set(ColPumpTube, rec.PumpTube)
	set(ColFalconSet, rec.FalconSet)
	set(ColFalconID, rec.FalconID)
	setf(ColTareWeight, rec.TareWeight)
	setf(ColFullWeight, rec.FullWeight)
	setf(ColMinutes, rec.Minutes)
	setf(ColFlowRate, rec.FlowRate)
	setf(ColSMR1, rec.SMR1)
	setf(ColSMR2, rec.SMR2)
	setf(ColDeltaTorr, rec.DeltaTorr)
	setf(ColWatts, rec.Watts)
	set(ColSex, rec.Sex)
	setf(ColBodyLength, rec.BodyLength)
	setf(ColHeadLength, rec.HeadLength)
	set(ColNote, rec.Note)
	set(ColDryWeight, rec.DryWeight)
	set(ColState, rec.State)
	return row
}
