package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Remote library errors
	ErrRootNotFound      = fmt.Errorf("music root not found")
	ErrRemoteUnavailable = fmt.Errorf("emby API unavailable")
	ErrAPIRequest        = fmt.Errorf("API request failed")
	ErrDecode            = fmt.Errorf("failed to decode response")
	ErrItemNotFound      = fmt.Errorf("item not found")
	ErrUserNotFound      = fmt.Errorf("emby user not found")

	// Navigation errors, recovered locally by the library
	ErrUnrecognizedURI = fmt.Errorf("unrecognized uri")
	ErrUnknownField    = fmt.Errorf("unknown search field")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
