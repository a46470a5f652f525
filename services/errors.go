package services

import "errors"

// Sentinel errors returned by the pipeline services. Controllers match them
// with errors.Is and map them onto response envelopes; webhook handlers use
// ErrDataIntegrity to distinguish permanent mismatches (log + acknowledge)
// from transient failures (error status, upstream redelivers).
var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotEnrolled      = errors.New("user not enrolled in course")
	ErrAlreadyGraded    = errors.New("quiz already graded")
	ErrNotCompleted     = errors.New("course not yet completed")
	ErrGateway          = errors.New("payment gateway request failed")
	ErrDocumentProvider = errors.New("document provider request failed")
	ErrDataIntegrity    = errors.New("referenced record missing")
)
