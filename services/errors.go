package services

import "errors"

var (
	ErrRequestNotFound  = errors.New("review request not found")
	ErrPolicyNotFound   = errors.New("channel policy not found")
	ErrMalformedRequest = errors.New("malformed review request")
	ErrDuplicateRequest = errors.New("review request already exists")
	ErrInvalidLink      = errors.New("invalid review link")
	ErrInvalidSLAHours  = errors.New("sla hours must be a positive integer")
	ErrInvalidReviews   = errors.New("reviews needed must not be negative")
	ErrNotSubmitter     = errors.New("only the submitter can edit the review request")
	ErrInvalidSignature = errors.New("invalid slack signature")
)
