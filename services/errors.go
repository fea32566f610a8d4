package services

import (
	"errors"
	"fmt"

	"realestate-summary/storage"
	"realestate-summary/utils"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindMissingColumn       Kind = "MISSING_COLUMN"
	KindDecodeLookupFailure Kind = "DECODE_LOOKUP_FAILURE"
	KindParseFailure        Kind = "PARSE_FAILURE"
	KindSourceLoadFailure   Kind = "SOURCE_LOAD_FAILURE"
)

// PipelineError describes one failure during a city run. All kinds except
// KindSourceLoadFailure are recovered inside the pipeline and only recorded.
type PipelineError struct {
	Kind    Kind
	City    string
	Column  string
	Table   string
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.City != "" {
		msg = fmt.Sprintf("%s [city=%s]", msg, e.City)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s (caused by: %v)", msg, e.Err)
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Severity is the log level the failure is reported at. A decoder table that
// simply does not exist is informational; one that exists but cannot be used
// is a warning.
func (e *PipelineError) Severity() string {
	switch e.Kind {
	case KindMissingColumn:
		return utils.LevelInfo
	case KindDecodeLookupFailure:
		if errors.Is(e.Err, storage.ErrTableNotFound) {
			return utils.LevelInfo
		}
		return utils.LevelWarn
	case KindSourceLoadFailure:
		return utils.LevelError
	default:
		return utils.LevelWarn
	}
}

// IsKind reports whether err is a PipelineError of kind k.
func IsKind(err error, k Kind) bool {
	var pe *PipelineError
	return errors.As(err, &pe) && pe.Kind == k
}

func missingColumn(column, message string) *PipelineError {
	return &PipelineError{Kind: KindMissingColumn, Column: column, Message: message}
}

func decodeLookupFailure(column, table string, err error) *PipelineError {
	return &PipelineError{
		Kind:    KindDecodeLookupFailure,
		Column:  column,
		Table:   table,
		Message: fmt.Sprintf("could not decode %s using %s", column, table),
		Err:     err,
	}
}

func parseFailure(column string, rows int) *PipelineError {
	return &PipelineError{
		Kind:    KindParseFailure,
		Column:  column,
		Message: fmt.Sprintf("%d rows had no parseable value", rows),
	}
}

func sourceLoadFailure(city, table string, err error) *PipelineError {
	return &PipelineError{
		Kind:    KindSourceLoadFailure,
		City:    city,
		Table:   table,
		Message: fmt.Sprintf("could not load source table %s", table),
		Err:     err,
	}
}
