package models

import "errors"

var (
	// ErrValidation marks a malformed order intent, rejected before any
	// persistence.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an unknown order id.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks an acting identity outside the current admin
	// set, or a cancel attempted by a non-owner.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidTransition marks a status change on an order that already
	// left pending. The losing side of a race sees this and must not touch
	// any notification copy.
	ErrInvalidTransition = errors.New("order already processed")
)
