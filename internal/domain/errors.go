package domain

import "errors"

// Structural and input errors are reported to callers; ErrCollaborator is
// absorbed by the answering pipeline and never surfaced from Ask.
var (
	// ErrEmptyCorpus indicates there are no usable segments to index.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrInvalidQuery indicates an empty or whitespace-only question.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrCorruptIndex indicates a persisted index does not match its corpus.
	// Callers must rebuild.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrCollaborator indicates the generative collaborator failed or timed out.
	ErrCollaborator = errors.New("generative collaborator failed")

	// ErrGeneratorUnavailable indicates no generative collaborator is configured.
	ErrGeneratorUnavailable = errors.New("generative collaborator unavailable")

	// ErrDuplicateSegment indicates two segments share an id.
	ErrDuplicateSegment = errors.New("duplicate segment id")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
