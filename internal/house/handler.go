package house

import (
	"math/big"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func statusFor(err error) int {
	switch KindOf(err) {
	case KindAuthorization:
		if err == ErrNotAdmin {
			return fiber.StatusForbidden
		}
		return fiber.StatusUnauthorized
	case KindValidation:
		return fiber.StatusBadRequest
	case KindResource:
		return fiber.StatusUnprocessableEntity
	case KindInvariant:
		return fiber.StatusConflict
	case KindNotFound:
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// WriteError renders a house failure as JSON with a status matching its kind.
func WriteError(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
		"code":  CodeOf(err),
	})
}

// Display renders a Scale-denominated value as a decimal string.
func Display(v uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -8).String()
}

// RegisterAdminRoutes mounts the admin-gated game administration endpoints.
// Requests act as admin; the router is expected to sit behind an admin guard.
func RegisterAdminRoutes(r fiber.Router, service *Service, admin Address) {

	r.Post("/games", func(c *fiber.Ctx) error {
		type Req struct {
			ID           string `json:"id"`
			Owner        string `json:"owner"`
			Name         string `json:"name"`
			Version      uint32 `json:"version"`
			MinBet       uint64 `json:"min_bet"`
			MaxBet       uint64 `json:"max_bet"`
			HouseEdgeBps uint64 `json:"house_edge_bps"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}
		rec, err := service.Register(c.UserContext(), admin, GameSpec{
			ID:           GameID(body.ID),
			Owner:        Address(body.Owner),
			Name:         body.Name,
			Version:      body.Version,
			MinBet:       body.MinBet,
			MaxBet:       body.MaxBet,
			HouseEdgeBps: body.HouseEdgeBps,
		})
		if err != nil {
			return WriteError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	})

	r.Delete("/games/:id", func(c *fiber.Ctx) error {
		if err := service.Unregister(c.UserContext(), admin, GameID(c.Params("id"))); err != nil {
			return WriteError(c, err)
		}
		return c.JSON(fiber.Map{"status": "unregistered"})
	})

	r.Put("/games/:id/limits", func(c *fiber.Ctx) error {
		type Req struct {
			MinBet uint64 `json:"min_bet"`
			MaxBet uint64 `json:"max_bet"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}
		rec, err := service.UpdateLimits(c.UserContext(), admin, GameID(c.Params("id")), body.MinBet, body.MaxBet)
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(rec)
	})

	r.Put("/games/:id/edge", func(c *fiber.Ctx) error {
		type Req struct {
			HouseEdgeBps uint64 `json:"house_edge_bps"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}
		rec, err := service.UpdateHouseEdge(c.UserContext(), admin, GameID(c.Params("id")), body.HouseEdgeBps)
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(rec)
	})

	r.Put("/games/:id/active", func(c *fiber.Ctx) error {
		type Req struct {
			Active bool `json:"active"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}
		rec, err := service.SetActive(c.UserContext(), admin, GameID(c.Params("id")), body.Active)
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(rec)
	})
}

// RegisterRoutes mounts the investor-facing equity endpoints and read-only
// treasury views.
func RegisterRoutes(r fiber.Router, service *Service) {

	r.Post("/equity/deposit", func(c *fiber.Ctx) error {
		type Req struct {
			Investor string `json:"investor"`
			Amount   uint64 `json:"amount"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}
		minted, err := service.DepositAndMint(c.UserContext(), Address(body.Investor), body.Amount)
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(minted)
	})

	r.Post("/equity/redeem", func(c *fiber.Ctx) error {
		type Req struct {
			Investor string `json:"investor"`
			Tokens   uint64 `json:"tokens"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}
		red, err := service.Redeem(c.UserContext(), Address(body.Investor), body.Tokens)
		if err != nil {
			return WriteError(c, err)
		}
		return c.JSON(red)
	})

	r.Get("/equity/nav", func(c *fiber.Ctx) error {
		nav := service.NAV()
		return c.JSON(fiber.Map{
			"nav":          nav,
			"nav_display":  Display(nav),
			"total_supply": service.TotalSupply(),
			"bankroll":     service.BankrollValue(),
			"snapshot":     service.LastSnapshot(),
		})
	})

	r.Get("/equity/holders/:addr", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"balance": service.HolderBalance(Address(c.Params("addr")))})
	})

	r.Get("/treasury", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"composition": service.TreasuryComposition(),
			"central":     service.CentralAccount(),
			"games":       service.Accounts(),
		})
	})

	r.Get("/games", func(c *fiber.Ctx) error {
		return c.JSON(service.Games())
	})

	r.Get("/bets/:id", func(c *fiber.Ctx) error {
		id, err := ParseBetID(c.Params("id"))
		if err != nil {
			return WriteError(c, err)
		}
		rec, ok := service.Bet(id)
		if !ok {
			return WriteError(c, ErrBetNotFound)
		}
		return c.JSON(rec)
	})
}
