package pulse

import (
	"errors"

	perrors "github.com/randalmurphal/pulse/pkg/pulse/errors"
)

// Sentinel errors for the client.
var (
	// ErrShutdown indicates a call was made after Shutdown.
	ErrShutdown = errors.New("cannot enqueue messages after client is shutdown")

	// ErrDuplicateTag indicates another live client already uses the tag.
	ErrDuplicateTag = errors.New("duplicate client tag")

	// ErrInvalidArgument matches every validation failure.
	ErrInvalidArgument = perrors.ErrInvalidArgument
)
