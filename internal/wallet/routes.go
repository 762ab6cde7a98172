package wallet

import (
	"github.com/gofiber/fiber/v2"

	"bx-treasury/internal/house"
)

func RegisterRoutes(app fiber.Router, service *Service) {

	app.Post("/wallet/credit", func(c *fiber.Ctx) error {
		type Req struct {
			Address string `json:"address"`
			Amount  uint64 `json:"amount"`
		}
		var r Req
		if err := c.BodyParser(&r); err != nil {
			return c.SendStatus(400)
		}
		if err := service.Credit(c.UserContext(), house.Address(r.Address), r.Amount); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "credited"})
	})

	app.Get("/wallet/balance/:addr", func(c *fiber.Ctx) error {
		b, err := service.Balance(c.UserContext(), house.Address(c.Params("addr")))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"balance": b})
	})
}
