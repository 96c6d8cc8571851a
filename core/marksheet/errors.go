package marksheet

import "errors"

var (
	ErrNoSubjects        = errors.New("at least one subject mark is required")
	ErrUnknownCurriculum = errors.New("no curriculum for this track and group")
	ErrDuplicateSubject  = errors.New("subject entered more than once")
	ErrUnknownSubject    = errors.New("subject is not part of the curriculum")
	ErrMarkRequired      = errors.New("mark is required for every curriculum subject")
	ErrInvalidAttendance = errors.New("attendance must be between 0 and 100")
	ErrNoRecipient       = errors.New("no recipient for the requested channel")
)
