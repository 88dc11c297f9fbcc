package condition

import "errors"

var ErrInvalidCondition = errors.New("condition: invalid condition")
