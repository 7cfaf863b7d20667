package core

// OutputRecordType is the run-time tag of an OutputRecord variant.
type OutputRecordType string

const (
	OutputLogs  OutputRecordType = "logs"
	OutputImage OutputRecordType = "image"
)

// OutputRecord is a tagged output produced by a code interpreter call.
type OutputRecord interface {
	Type() OutputRecordType
	isOutputRecord()
}

// LogsOutput carries stdout/stderr-like text.
type LogsOutput struct {
	Text string
}

// Type implements OutputRecord.
func (LogsOutput) Type() OutputRecordType { return OutputLogs }
func (LogsOutput) isOutputRecord()        {}

// ImageOutput references an image file produced by the interpreter.
type ImageOutput struct {
	FileID string
}

// Type implements OutputRecord.
func (ImageOutput) Type() OutputRecordType { return OutputImage }
func (ImageOutput) isOutputRecord()        {}
