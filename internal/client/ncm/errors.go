package ncm

import "errors"

var (
	// ErrUnexpectedHTTPStatus indicates an unexpected HTTP status code was received.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
	// ErrUnexpectedAPICode indicates that the catalog reported a failure in the response body.
	ErrUnexpectedAPICode = errors.New("unexpected API response code")
	// ErrSongNotFound indicates that the catalog has no song with the requested ID.
	ErrSongNotFound = errors.New("song not found")
	// ErrProgramNotFound indicates that the catalog has no program with the requested ID.
	ErrProgramNotFound = errors.New("program not found")
	// ErrEmptyIDList indicates that a batch request was made without IDs.
	ErrEmptyIDList = errors.New("no IDs provided")
)
