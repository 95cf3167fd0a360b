package notifier

import "errors"

var (
	ErrStoreUnavailable = errors.New("notification store unavailable")
	ErrNotFound         = errors.New("user or book not found")
	ErrUnsupportedType  = errors.New("unsupported notification type")
	ErrDeliveryFailed   = errors.New("email delivery failed")
)
