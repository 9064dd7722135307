package losses

import "errors"

var (
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrDtype            = errors.New("unsupported dtype")
	ErrInvalidSigma     = errors.New("sigma must be positive")
	ErrInvalidOption    = errors.New("invalid option")
	ErrUnknownReduction = errors.New("unknown reduction")
	ErrNoChannels       = errors.New("tensor has no channel axis")
)
