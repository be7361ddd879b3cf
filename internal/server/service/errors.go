package service

import (
	"errors"

	"gorm.io/gorm"
)

// ErrorKind classifies domain errors for the transport layer
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindStateConflict
	KindForbidden
)

// Error is a domain error. Two errors match under errors.Is when their codes match.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrPlanNotFound        = &Error{Kind: KindNotFound, Code: "plan_not_found", Message: "plan not found"}
	ErrOptionNotFound      = &Error{Kind: KindNotFound, Code: "option_not_found", Message: "option not found"}
	ErrParticipantNotFound = &Error{Kind: KindNotFound, Code: "participant_not_found", Message: "participant not found"}

	ErrInvalidVoteType   = &Error{Kind: KindValidation, Code: "invalid_vote_type", Message: "invalid vote type"}
	ErrWeightOutOfRange  = &Error{Kind: KindValidation, Code: "weight_out_of_range", Message: "vote weight must be in (0, 10]"}
	ErrInvalidRSVPStatus = &Error{Kind: KindValidation, Code: "invalid_rsvp_status", Message: "invalid rsvp status"}
	ErrInvalidConfig     = &Error{Kind: KindValidation, Code: "invalid_consensus_config", Message: "invalid consensus config"}
	ErrInvalidPlan       = &Error{Kind: KindValidation, Code: "invalid_plan", Message: "invalid plan"}

	ErrPollNotActive          = &Error{Kind: KindStateConflict, Code: "poll_not_active", Message: "poll is not active"}
	ErrInvalidPhaseTransition = &Error{Kind: KindStateConflict, Code: "invalid_phase_transition", Message: "invalid phase transition"}
	ErrNotConsensus           = &Error{Kind: KindStateConflict, Code: "consensus_not_reached", Message: "consensus not reached"}
	ErrNotEnoughOptions       = &Error{Kind: KindStateConflict, Code: "not_enough_options", Message: "not enough options"}
	ErrOptionsLocked          = &Error{Kind: KindStateConflict, Code: "options_locked", Message: "options can no longer change"}
	ErrRSVPNotOpen            = &Error{Kind: KindStateConflict, Code: "rsvp_not_open", Message: "rsvp is not open"}

	ErrNotPermitted = &Error{Kind: KindForbidden, Code: "not_permitted", Message: "not permitted"}
)

// AsError returns the domain error wrapped in err, if any
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// notFound maps gorm's missing-row error onto a domain sentinel
func notFound(err error, sentinel *Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
