package interview

import "github.com/talentscout/screener/internal/validate"

// State is the conversation position of a screening session. The machine is
// closed: every transition goes through the tables below or the explicit
// handlers in the manager.
type State int

const (
	StateGreeting State = iota
	StateCollectName
	StateCollectEmail
	StateCollectPhone
	StateCollectExperience
	StateCollectPosition
	StateCollectLocation
	StateCollectTechStack
	StateTechAssessment
	// StateWrapUp is a pass-through: the closing summary is emitted and the
	// session transitions to StateCompleted within the same turn.
	StateWrapUp
	StateCompleted
	StateEndedByUser
)

var stateNames = map[State]string{
	StateGreeting:          "GREETING",
	StateCollectName:       "COLLECT_NAME",
	StateCollectEmail:      "COLLECT_EMAIL",
	StateCollectPhone:      "COLLECT_PHONE",
	StateCollectExperience: "COLLECT_EXPERIENCE",
	StateCollectPosition:   "COLLECT_POSITION",
	StateCollectLocation:   "COLLECT_LOCATION",
	StateCollectTechStack:  "COLLECT_TECH_STACK",
	StateTechAssessment:    "TECH_ASSESSMENT",
	StateWrapUp:            "WRAP_UP",
	StateCompleted:         "COMPLETED",
	StateEndedByUser:       "ENDED_BY_USER",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal reports whether the session accepts further input.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateEndedByUser
}

// nextCollectState is the transition table for the data-collection phase.
var nextCollectState = map[State]State{
	StateCollectName:       StateCollectEmail,
	StateCollectEmail:      StateCollectPhone,
	StateCollectPhone:      StateCollectExperience,
	StateCollectExperience: StateCollectPosition,
	StateCollectPosition:   StateCollectLocation,
	StateCollectLocation:   StateCollectTechStack,
}

// collectField maps each collection state to its validated field.
var collectField = map[State]validate.Field{
	StateCollectName:       validate.FieldName,
	StateCollectEmail:      validate.FieldEmail,
	StateCollectPhone:      validate.FieldPhone,
	StateCollectExperience: validate.FieldExperience,
	StateCollectPosition:   validate.FieldPosition,
	StateCollectLocation:   validate.FieldLocation,
}
