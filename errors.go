package framegraph

import "errors"

// Configuration errors. These indicate a malformed graph or misuse of the
// build API and are raised with panic, wrapped so that callers recovering
// in tests can match them with errors.Is.
var (
	// ErrNilCallback is raised when a Code op without Func is built.
	ErrNilCallback = errors.New("framegraph: op has nil callback")

	// ErrNilNode is raised when a nil node is added to a script, subgraph or subpass.
	ErrNilNode = errors.New("framegraph: nil node")

	// ErrDuplicateSubgraph is raised when a subgraph name is registered twice.
	ErrDuplicateSubgraph = errors.New("framegraph: subgraph already registered")

	// ErrNotCompiled is raised when a script is run before it was compiled.
	ErrNotCompiled = errors.New("framegraph: script not compiled")

	// ErrStaleProgram is raised when a program is run after its arena was reset.
	ErrStaleProgram = errors.New("framegraph: program invalidated by rebuild")

	// ErrInvalidBufferIndex is raised when bufferIndex is outside [0, BufferedFrames).
	ErrInvalidBufferIndex = errors.New("framegraph: buffer index out of range")
)

// Resource table errors, returned as values.
var (
	// ErrDuplicateResource is returned when a resource name is declared twice.
	ErrDuplicateResource = errors.New("framegraph: resource already declared")

	// ErrUnknownResource is returned when a handle or name does not resolve.
	ErrUnknownResource = errors.New("framegraph: unknown resource")

	// ErrInvalidDimensions is returned for zero or negative texture sizes.
	ErrInvalidDimensions = errors.New("framegraph: invalid dimensions")
)
