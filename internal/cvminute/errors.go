package cvminute

import "errors"

var ErrNotFound = errors.New("not found")
