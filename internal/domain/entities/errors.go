package entities

import "errors"

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("document is empty")
	ErrInvalidName         = errors.New("invalid document name")
	ErrNoDocument          = errors.New("no document loaded")
	ErrEmptyQuestion       = errors.New("question is empty")
)
