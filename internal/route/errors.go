package route

import "errors"

var (
	ErrRouteNotFound      = errors.New("route not found")
	ErrLegNotFound        = errors.New("leg not found")
	ErrShipmentNotFound   = errors.New("shipment request not found")
	ErrVehicleUnavailable = errors.New("vehicle unavailable")
	ErrInvalidState       = errors.New("invalid leg state for requested transition")
	// ErrDepositsNotSupported signals that routing through intermediate
	// deposits is not implemented yet. Returned instead of silently
	// producing an empty route.
	ErrDepositsNotSupported = errors.New("routing through intermediate deposits is not supported yet")
)
