package grading

import "errors"

var (
	ErrInvalidMark    = errors.New("mark must be between 0 and 100")
	ErrInvalidScheme  = errors.New("invalid grading scheme")
	ErrMissingSubject = errors.New("required subject is missing")
	ErrUnknownCutoff  = errors.New("unknown cutoff")
	ErrUnknownTrack   = errors.New("unknown track")
)
