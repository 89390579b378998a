package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrUpload             = fmt.Errorf("upload failed")
	ErrCacheMiss          = fmt.Errorf("cache entry not found")

	// Audio capture errors
	ErrDeviceAccess      = fmt.Errorf("audio input device unavailable")
	ErrAudioDecode       = fmt.Errorf("could not decode captured audio")
	ErrUnsupportedFormat = fmt.Errorf("unsupported audio format")
	ErrRecordingActive   = fmt.Errorf("recording already in progress")
	ErrNotRecording      = fmt.Errorf("no active recording")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
