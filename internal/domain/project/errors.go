package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrDuplicateFolder indicates the user already has a project for the folder.
	ErrDuplicateFolder = errors.New("project folder already registered")
	// ErrCycle indicates a parent assignment would make a project its own ancestor.
	ErrCycle = errors.New("project parent would create a cycle")
)
