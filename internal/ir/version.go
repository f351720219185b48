package ir

// Version constants for the record encoding and the tool.
const (
	// RecordVersion is the operation-record encoding version.
	RecordVersion = "1"

	// ToolVersion is the fusionscope version.
	ToolVersion = "0.1.0"
)
