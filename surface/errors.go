package surface

import "errors"

// Sentinel errors for the surface package.
var (
	// ErrNotReady is returned by Present while the surface is
	// invalidated or still being created. It is transient: the frame
	// scheduler retries on the next pacing tick.
	ErrNotReady = errors.New("surface: not ready")

	// ErrLost is reported by platform targets when the underlying
	// surface was lost (device reset, compositor restart). The manager
	// recreates the target on the next present attempt.
	ErrLost = errors.New("surface: lost")

	// ErrDestroyed is returned when operating on a destroyed surface.
	ErrDestroyed = errors.New("surface: destroyed")

	// ErrDegraded is returned once surface recreation has failed
	// repeatedly. The window is reported unusable to the editor core,
	// which decides whether to close it.
	ErrDegraded = errors.New("surface: degraded after repeated creation failures")

	// ErrNoPlatform is returned when the requested platform is not
	// registered.
	ErrNoPlatform = errors.New("surface: platform not registered")

	// ErrNoPresenter is returned when a GPU platform is constructed
	// without a texture drawer to present through.
	ErrNoPresenter = errors.New("surface: no texture drawer")

	// ErrInvalidSize is returned for non-positive surface dimensions.
	ErrInvalidSize = errors.New("surface: invalid dimensions")
)
