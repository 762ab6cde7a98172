package casino

import (
	"github.com/gofiber/fiber/v2"

	"bx-treasury/internal/house"
)

func RegisterRoutes(r fiber.Router, tables *Tables, board *Leaderboard, rtp *RTPController) {

	r.Post("/casino/play", func(c *fiber.Ctx) error {

		type Req struct {
			Game       string `json:"game"`
			Player     string `json:"player"`
			Bet        uint64 `json:"bet"`
			Multiplier uint64 `json:"multiplier"`
			ClientSeed string `json:"client_seed"`
		}

		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}

		table, ok := tables.Get(house.GameID(body.Game))
		if !ok {
			return c.Status(404).JSON(fiber.Map{
				"error": ErrUnknownGame.Error(),
			})
		}

		result, err := table.Play(c.UserContext(), PlayRequest{
			Player:     house.Address(body.Player),
			Bet:        body.Bet,
			Multiplier: body.Multiplier,
			ClientSeed: body.ClientSeed,
		})

		if err != nil {
			if house.KindOf(err) != 0 {
				return house.WriteError(c, err)
			}
			return c.Status(400).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(result)
	})

	r.Get("/casino/leaderboard", func(c *fiber.Ctx) error {
		n := c.QueryInt("limit", 10)
		return c.JSON(board.Top(n))
	})

	r.Get("/casino/rtp", func(c *fiber.Ctx) error {
		return c.JSON(rtp.Stats())
	})

	r.Get("/casino/:game/seeds", func(c *fiber.Ctx) error {
		table, ok := tables.Get(house.GameID(c.Params("game")))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": ErrUnknownGame.Error()})
		}
		_, hash := table.Seeds().Current()
		return c.JSON(fiber.Map{
			"server_seed_hash": hash,
			"revealed":         table.Seeds().Revealed(),
		})
	})

	r.Post("/casino/verify", func(c *fiber.Ctx) error {
		type Req struct {
			ServerSeed     string `json:"server_seed"`
			ServerSeedHash string `json:"server_seed_hash"`
			ClientSeed     string `json:"client_seed"`
			Nonce          uint64 `json:"nonce"`
			Roll           uint64 `json:"roll"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}
		return c.JSON(fiber.Map{
			"valid": VerifyRoll(body.ServerSeed, body.ServerSeedHash, body.ClientSeed, body.Nonce, body.Roll),
		})
	})
}
