package native

import "errors"

var (
	// ErrNilDevice is returned when a device or provider is nil.
	ErrNilDevice = errors.New("native: device is nil")

	// ErrNoHAL is returned when a provider does not expose HAL types.
	ErrNoHAL = errors.New("native: provider does not expose HAL device and queue")

	// ErrUnknownBuffer is recorded when a command names a buffer without
	// device storage.
	ErrUnknownBuffer = errors.New("native: buffer has no storage")

	// ErrUnknownTexture is recorded when a command names a texture without
	// device storage.
	ErrUnknownTexture = errors.New("native: texture has no storage")

	// ErrUnsupported is recorded for commands the HAL cannot express.
	ErrUnsupported = errors.New("native: unsupported command")

	// ErrWaitBeforeSignal is recorded when an event is waited on before
	// any command signalled it in the same frame.
	ErrWaitBeforeSignal = errors.New("native: event waited before signal")
)
