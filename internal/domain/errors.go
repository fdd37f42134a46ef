package domain

import "fmt"

// InvalidDataError reports structurally invalid input to a simulator or
// comparator: an empty price series, a non-positive contribution amount,
// an empty result batch. It is never retried internally.
type InvalidDataError struct {
	Msg string
}

func (e *InvalidDataError) Error() string {
	return e.Msg
}

// ErrInvalidData builds an InvalidDataError with a formatted message.
func ErrInvalidData(format string, args ...interface{}) *InvalidDataError {
	return &InvalidDataError{Msg: fmt.Sprintf(format, args...)}
}

// CalculationError reports a violated precondition of a metric function:
// a zero baseline value, non-positive years, division by zero. It means
// either bad upstream data or a genuine edge case such as a single-day
// backtest.
type CalculationError struct {
	Msg string
}

func (e *CalculationError) Error() string {
	return e.Msg
}

// ErrCalculation builds a CalculationError with a formatted message.
func ErrCalculation(format string, args ...interface{}) *CalculationError {
	return &CalculationError{Msg: fmt.Sprintf(format, args...)}
}
