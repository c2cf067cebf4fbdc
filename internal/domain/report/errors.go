package report

import "errors"

var (
	ErrReportNotFound     = errors.New("report not found")
	ErrNotReportOwner     = errors.New("not authorized to modify this report")
	ErrInvalidPrediction  = errors.New("invalid prediction label")
	ErrInvalidConfidence  = errors.New("confidence must be between 0 and 1")
	ErrPatientNotFound    = errors.New("patient not found")
	ErrImageRequired      = errors.New("please upload an image")
	ErrUnsupportedImage   = errors.New("images only: jpeg, jpg or png")
	ErrImageTooLarge      = errors.New("image exceeds maximum upload size")
	ErrMissingReportField = errors.New("missing required report data")
)
