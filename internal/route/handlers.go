package route

import (
	"context"
	"errors"
	"strconv"

	"backend-logistics/internal/clients"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/routes/compute", func(c *fiber.Ctx) error {
		var body struct {
			ShipmentRequestID int64   `json:"shipment_request_id"`
			DepositIDs        []int64 `json:"deposit_ids"`
		}
		if err := c.BodyParser(&body); err != nil || body.ShipmentRequestID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "shipment_request_id required")
		}
		rt, err := svc.ComputeTentativeRoute(requestCtx(c), body.ShipmentRequestID, body.DepositIDs)
		if err != nil {
			return routeError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(rt)
	})

	r.Get("/routes", func(c *fiber.Ctx) error {
		routes, err := svc.ListRoutes(requestCtx(c))
		if err != nil {
			return routeError(err)
		}
		if routes == nil {
			routes = []Route{}
		}
		return c.JSON(routes)
	})

	r.Get("/routes/by-request/:id", func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		rt, err := svc.RouteByRequest(requestCtx(c), id)
		if err != nil {
			return routeError(err)
		}
		return c.JSON(rt)
	})

	r.Get("/routes/:id", func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		rt, err := svc.GetRoute(requestCtx(c), id)
		if err != nil {
			return routeError(err)
		}
		return c.JSON(rt)
	})

	r.Post("/routes/:id/deactivate", func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		if err := svc.DeactivateRoute(requestCtx(c), id); err != nil {
			return routeError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/legs/:id/assign", func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		var body struct {
			VehicleID int64 `json:"vehicle_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.VehicleID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "vehicle_id required")
		}
		leg, err := svc.AssignVehicle(requestCtx(c), id, body.VehicleID)
		if err != nil {
			return routeError(err)
		}
		return c.JSON(leg)
	})

	r.Post("/legs/:id/start", func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		leg, err := svc.StartLeg(requestCtx(c), id)
		if err != nil {
			return routeError(err)
		}
		return c.JSON(leg)
	})

	r.Post("/legs/:id/finish", func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		leg, err := svc.FinishLeg(requestCtx(c), id)
		if err != nil {
			return routeError(err)
		}
		return c.JSON(leg)
	})

	r.Get("/vehicles/:id/legs", func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		legs, err := svc.ListLegsForVehicle(requestCtx(c), id)
		if err != nil {
			return routeError(err)
		}
		if legs == nil {
			legs = []Leg{}
		}
		return c.JSON(legs)
	})
}

// requestCtx carries the caller's bearer token so outbound client calls can
// forward it.
func requestCtx(c *fiber.Ctx) context.Context {
	ctx := c.Context()
	if token := c.Get(fiber.HeaderAuthorization); token != "" {
		return clients.WithToken(ctx, token)
	}
	return ctx
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func routeError(err error) error {
	switch {
	case errors.Is(err, ErrRouteNotFound), errors.Is(err, ErrLegNotFound), errors.Is(err, ErrShipmentNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidState):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrVehicleUnavailable):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrDepositsNotSupported):
		return fiber.NewError(fiber.StatusNotImplemented, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
