package competition

import "errors"

var (
	// ErrFetch marks a network or decode failure on one of the API documents.
	ErrFetch = errors.New("fetch failed")
	// ErrNotYetOpen marks a competition whose registration is still closed.
	ErrNotYetOpen = errors.New("registration not yet open")
	ErrMissingCombination = errors.New("setting references unknown distance combination")
	ErrRender             = errors.New("render failed")
	ErrStore              = errors.New("store failed")
	ErrInvalid            = errors.New("invalid document")
)
