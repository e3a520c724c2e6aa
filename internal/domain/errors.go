package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTopicStatus is returned when a topic status is not valid.
	ErrInvalidTopicStatus = errors.New("invalid topic status")

	// ErrInvalidNoteID is returned when a note ID is zero or negative.
	ErrInvalidNoteID = errors.New("invalid note ID")

	// ErrNegativeReadingTime is returned when a reading time is below zero.
	ErrNegativeReadingTime = errors.New("reading time cannot be negative")

	// ErrEmptyNoteUpdate is returned when a note update changes nothing.
	ErrEmptyNoteUpdate = errors.New("note update has no fields set")
)
