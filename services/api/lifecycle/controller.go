// Package lifecycle is the experiment state machine: it decides how an
// operator enters the measurement screen, creates and updates sets of
// per-animal records, and moves them through their states. It is the only
// component with cross-cutting state; everything it touches goes through
// the record store and the session tracker.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/marebio/respirolab/services/api/calc"
	"github.com/marebio/respirolab/services/api/logger"
	"github.com/marebio/respirolab/services/api/session"
	"github.com/marebio/respirolab/services/api/store"
)

// ErrValidation marks failures that must block the save with an inline
// message instead of a partial write.
var ErrValidation = errors.New("validation failed")

// DateLayout is the calendar-day format of the Data column.
const DateLayout = "2006-01-02"

// Controller drives one operator interaction at a time against the store.
type Controller struct {
	records  *store.Records
	sessions *session.Tracker
	log      *logger.Logger

	now   func() time.Time
	newID func() string
}

// New builds a controller over the typed record layer and session tracker.
func New(records *store.Records, sessions *session.Tracker, log *logger.Logger) *Controller {
	return &Controller{
		records:  records,
		sessions: sessions,
		log:      log.With("component", "lifecycle"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Workspace outcomes of the resume/collision protocol.
const (
	WorkspaceTimerActive  = "TIMER_ACTIVE"  // reattach the running timer
	WorkspaceResumeChoice = "RESUME_CHOICE" // open set found, operator must choose
	WorkspaceNewSet       = "NEW_SET"       // nothing to resume
)

// Workspace is what the measurement screen gets on entry.
type Workspace struct {
	State       string       `json:"state"`
	Timer       *TimerStatus `json:"timer,omitempty"`
	OpenProject string       `json:"open_project,omitempty"`
	OpenRows    int          `json:"open_rows,omitempty"`
}

// TimerStatus reports a running (or just-stopped) timer. Elapsed is the
// wall-clock difference from the stored start, recomputed on every call.
type TimerStatus struct {
	Start          time.Time `json:"start"`
	Project        string    `json:"project"`
	ElapsedMinutes float64   `json:"elapsed_minutes"`
}

// Enter runs the resume protocol for an operator entering the measurement
// screen. An active timer wins over an open set; an open set of today for
// this operator (and project, when one is selected) triggers the binary
// resume-or-new choice; otherwise the screen starts blank. Existing rows
// are untouched either way until a save occurs.
func (c *Controller) Enter(ctx context.Context, user, project string) (Workspace, error) {
	active, err := c.sessions.Load(ctx, user)
	if err != nil {
		return Workspace{}, err
	}
	if active != nil {
		return Workspace{
			State: WorkspaceTimerActive,
			Timer: &TimerStatus{
				Start:          active.Start,
				Project:        active.Project,
				ElapsedMinutes: active.ElapsedMinutes(c.now()),
			},
		}, nil
	}

	records, err := c.records.All(ctx)
	if err != nil {
		return Workspace{}, err
	}
	today := c.now().Format(DateLayout)
	openProject := ""
	openRows := 0
	for _, rec := range records {
		if rec.Operator != user || rec.Date != today || IsTerminal(rec.State) {
			continue
		}
		if project != "" && rec.Project != project {
			continue
		}
		if openProject == "" {
			openProject = rec.Project
		}
		if rec.Project == openProject {
			openRows++
		}
	}
	if openProject != "" {
		return Workspace{State: WorkspaceResumeChoice, OpenProject: openProject, OpenRows: openRows}, nil
	}
	return Workspace{State: WorkspaceNewSet}, nil
}

// StartTimer persists a fresh timer for the operator, overwriting any
// previous entry without warning.
func (c *Controller) StartTimer(ctx context.Context, user, project string) (TimerStatus, error) {
	if project == "" {
		project = "InCorso"
	}
	start := c.now()
	if err := c.sessions.Save(ctx, user, start, project); err != nil {
		return TimerStatus{}, err
	}
	return TimerStatus{Start: start, Project: project, ElapsedMinutes: 0}, nil
}

// Timer returns the running timer with freshly computed elapsed minutes,
// or nil when none is active.
func (c *Controller) Timer(ctx context.Context, user string) (*TimerStatus, error) {
	active, err := c.sessions.Load(ctx, user)
	if err != nil || active == nil {
		return nil, err
	}
	return &TimerStatus{
		Start:          active.Start,
		Project:        active.Project,
		ElapsedMinutes: active.ElapsedMinutes(c.now()),
	}, nil
}

// StopTimer clears the operator's timer and returns its final reading, or
// nil when no timer was running.
func (c *Controller) StopTimer(ctx context.Context, user string) (*TimerStatus, error) {
	active, err := c.sessions.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, nil
	}
	final := &TimerStatus{
		Start:          active.Start,
		Project:        active.Project,
		ElapsedMinutes: active.ElapsedMinutes(c.now()),
	}
	if err := c.sessions.Clear(ctx, user); err != nil {
		return nil, err
	}
	return final, nil
}

// AnimalInput is one animal's portion of a set save.
type AnimalInput struct {
	AnimalID   string  `json:"animal_id"`
	Syringe    string  `json:"syringe"`
	FullWeight float64 `json:"full_weight"`
	Minutes    float64 `json:"minutes"`
	SMR1       float64 `json:"smr_1"`
	SMR2       float64 `json:"smr_2"`
	Sex        string  `json:"sex"`
	BodyLength float64 `json:"body_length"`
	HeadLength float64 `json:"head_length"`
	Note       string  `json:"note"`
}

// SetInput describes a whole new set: the environment snapshot plus one
// entry per animal.
type SetInput struct {
	Project     string            `json:"project"`
	Temperature float64           `json:"temperature"`
	Pressure    float64           `json:"pressure"`
	Tags        map[string]string `json:"tags"`
	FalconSet   string            `json:"falcon_set"`
	Animals     []AnimalInput     `json:"animals"`
}

func (c *Controller) validateSet(in SetInput) error {
	if in.Project == "" {
		return fmt.Errorf("%w: project name is required", ErrValidation)
	}
	if len(in.Animals) == 0 {
		return fmt.Errorf("%w: at least one animal is required", ErrValidation)
	}
	for i, a := range in.Animals {
		if a.AnimalID == "" {
			return fmt.Errorf("%w: animal %d has no ID", ErrValidation, i+1)
		}
	}
	if _, ok := calc.FalconDatasets[in.FalconSet]; in.FalconSet != "" && !ok {
		return fmt.Errorf("%w: unknown falcon set %q", ErrValidation, in.FalconSet)
	}
	return nil
}

// buildSet materializes the records of a new set. Every row gets a fresh
// identity and an identical environment snapshot; tare weights come from
// the chosen calibrated dataset, cycling slots past its size.
func (c *Controller) buildSet(user string, in SetInput, state string, withMeasurements bool) []store.Record {
	tagsJSON := "{}"
	if len(in.Tags) > 0 {
		if b, err := json.Marshal(in.Tags); err == nil {
			tagsJSON = string(b)
		}
	}
	slots := calc.AssignFalconSlots(in.FalconSet, len(in.Animals))
	date := c.now().Format(DateLayout)

	records := make([]store.Record, 0, len(in.Animals))
	for i, a := range in.Animals {
		rec := store.Record{
			ID:          c.newID(),
			Project:     in.Project,
			Date:        date,
			Operator:    user,
			Temperature: in.Temperature,
			Pressure:    in.Pressure,
			TagsJSON:    tagsJSON,
			AnimalID:    a.AnimalID,
			Syringe:     a.Syringe,
			FalconSet:   in.FalconSet,
			Sex:         normalizeSex(a.Sex),
			Note:        a.Note,
			State:       state,
		}
		if rec.Syringe == "" {
			rec.Syringe = strconv.Itoa(i + 1)
		}
		if i < len(slots) {
			rec.FalconID = slots[i].ID
			rec.TareWeight = slots[i].Tare
		}
		if withMeasurements {
			rec.FullWeight = a.FullWeight
			rec.Minutes = a.Minutes
			rec.FlowRate = calc.FlowRate(a.FullWeight, rec.TareWeight, a.Minutes)
			rec.SMR1 = a.SMR1
			rec.SMR2 = a.SMR2
			rec.DeltaTorr = calc.Delta(a.SMR1, a.SMR2)
			rec.Watts = calc.Power(rec.DeltaTorr, rec.FlowRate, in.Pressure, in.Temperature)
			rec.BodyLength = a.BodyLength
			rec.HeadLength = a.HeadLength
		}
		records = append(records, rec)
	}
	return records
}

// CreateStructure saves the skeleton of a new set: identity, grouping and
// animal IDs only, every measurement field zero or empty, state SETUP.
func (c *Controller) CreateStructure(ctx context.Context, user string, in SetInput) ([]store.Record, error) {
	if err := c.validateSet(in); err != nil {
		return nil, err
	}
	records := c.buildSet(user, in, StateSetup, false)
	if err := c.records.Append(ctx, records); err != nil {
		return nil, err
	}
	c.log.Info("structure created", "project", in.Project, "operator", user, "rows", len(records))
	return records, nil
}

// CreateSet is the one-shot save: skeleton plus measurements in a single
// append, with derived metrics computed per row and state APERTO.
func (c *Controller) CreateSet(ctx context.Context, user string, in SetInput) ([]store.Record, error) {
	if err := c.validateSet(in); err != nil {
		return nil, err
	}
	records := c.buildSet(user, in, StateOpen, true)
	if err := c.records.Append(ctx, records); err != nil {
		return nil, err
	}
	c.log.Info("set created", "project", in.Project, "operator", user, "rows", len(records))
	return records, nil
}

func normalizeSex(s string) string {
	switch s {
	case "M", "F", "ND":
		return s
	case "m":
		return "M"
	case "f":
		return "F"
	case "":
		return "ND"
	default:
		return "ND"
	}
}
