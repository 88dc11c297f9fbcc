package rule

import "errors"

var (
	ErrEmptyRule          = errors.New("rule: empty rule name")
	ErrInvalidConditional = errors.New("rule: invalid conditional rule")
)
