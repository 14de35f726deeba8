package config

// IsTestMode indicates if the compiler is running under its own test suite.
// Type variable names are normalized in this mode for deterministic output.
var IsTestMode = false

// Built-in type names
const (
	ListTypeName     = "List"
	OptionTypeName   = "Option"
	ResultTypeName   = "Result"
	SomeCtorName     = "Some"
	NoneCtorName     = "None"
	OkCtorName       = "Ok"
	ErrCtorName      = "Err"
	EmptyCtorName    = "Empty"
	NonEmptyCtorName = "NonEmpty"
)
