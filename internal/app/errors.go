package service

import (
	"errors"
)

// Sentinel kinds for service errors.
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrInvalidUpload   = errors.New("invalid upload")
	ErrUploadTooLarge  = errors.New("upload exceeds size limit")
	ErrInvalidSize     = errors.New("invalid sample size")
)
