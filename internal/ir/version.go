package ir

// Version constants for the persisted run log and engine.
const (
	// SchemaVersion is the record serialization version.
	SchemaVersion = "1"

	// EngineVersion is the resolver version.
	EngineVersion = "0.1.0"
)
