package catalog

import "errors"

var (
	ErrSpecialtyNotFound = errors.New("catalog: specialty not found")
	ErrServiceNotFound   = errors.New("catalog: service not found")
	ErrServiceNotOffered = errors.New("catalog: doctor does not offer service")
)
