package snapapps

import "errors"

// Repository errors.
var (
	ErrNotFound      = errors.New("snap app not found")
	ErrSlugTaken     = errors.New("slug already in use")
	ErrContentTooBig = errors.New("content payload too large")
)
