package search

import "errors"

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrInvalidInput         = errors.New("invalid search input")
	ErrExtractionFailed     = errors.New("could not extract medicine name")
	ErrLookupFailed         = errors.New("medicine not found in label database")
	ErrMedicineUpsertFailed = errors.New("error processing medicine data")
)
