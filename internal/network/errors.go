package network

import "fmt"

// ErrorKind is a protocol error reported to the client as "ERROR <reason>".
type ErrorKind int

const (
	// Authentication
	ErrNotAuthenticated ErrorKind = iota + 1
	ErrAlreadyAuthenticated
	ErrNoNameProvided
	ErrInvalidName
	ErrNameInUse

	// Challenge
	ErrTargetNotFound
	ErrUserNotFound
	ErrNotChallengingSelf
	ErrTargetAlreadyChallenged
	ErrTargetInMatch
	ErrChallengePending
	ErrAlreadyInMatch

	// Accept
	ErrNotChallengerSet
	ErrNoResponseGiven
	ErrInvalidResponse

	// Match
	ErrNoCardGiven
	ErrInvalidPlay
	ErrNotInMatch
	ErrNoMessageGiven
)

var errorReasons = map[ErrorKind]string{
	ErrNotAuthenticated:        "Not Authenticated",
	ErrAlreadyAuthenticated:    "Already Authenticated",
	ErrNoNameProvided:          "No Name Provided",
	ErrInvalidName:             "Invalid Name",
	ErrNameInUse:               "Name In Use",
	ErrTargetNotFound:          "Target Not Found",
	ErrUserNotFound:            "User Not Found",
	ErrNotChallengingSelf:      "Not Challenging Self",
	ErrTargetAlreadyChallenged: "Target Already Challenged",
	ErrTargetInMatch:           "Target In Match",
	ErrChallengePending:        "Challenge Pending",
	ErrAlreadyInMatch:          "Already In Match",
	ErrNotChallengerSet:        "Not Challenger Set",
	ErrNoResponseGiven:         "No Response Given",
	ErrInvalidResponse:         "Invalid Response",
	ErrNoCardGiven:             "No Card Given",
	ErrInvalidPlay:             "Invalid Play",
	ErrNotInMatch:              "Not In Match",
	ErrNoMessageGiven:          "No Message Given",
}

func (k ErrorKind) String() string {
	if reason, ok := errorReasons[k]; ok {
		return reason
	}
	return fmt.Sprintf("Error %d", int(k))
}
