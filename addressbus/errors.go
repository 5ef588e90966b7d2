package addressbus

import "errors"

var (
	ErrNotMapped      = errors.New("addressbus: address not mapped")
	ErrOverlap        = errors.New("addressbus: range overlaps an existing registration at this priority")
	ErrRedirectInvalid = errors.New("addressbus: redirect target is not fully contained in one existing device range")
	ErrDeviceFault    = errors.New("addressbus: device reported a fault servicing the access")
	ErrZeroSize       = errors.New("addressbus: zero-size device or range")
	ErrNilDevice      = errors.New("addressbus: nil device")
)
