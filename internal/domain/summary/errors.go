package summary

import "errors"

// ErrInvalidRange indicates a reporting range that cannot be bucketed.
var ErrInvalidRange = errors.New("invalid reporting range")
