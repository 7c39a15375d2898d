package log4you

const (
	// FieldLogID is the structured field key carrying the per-entry identifier.
	FieldLogID = "log_id"
	// FieldService is the structured field key carrying the logical service name.
	FieldService = "service"

	emptyString = ""

	// logIDLength is the rendered length of a log ID: a UUID without dashes.
	logIDLength = 32
)

const (
	errMsgNilService    = "logging service is nil"
	errMsgNilConfig     = "logging config is nil"
	errMsgConfigInvalid = "logging configuration is invalid"
	errMsgNoWriters     = "no logging outputs enabled"
)
