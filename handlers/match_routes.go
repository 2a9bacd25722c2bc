// handlers/match_routes.go
package handlers

import (
	"errors"
	"log"
	"net/url"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"match-integrity-system/engine"
	"match-integrity-system/middleware"
	"match-integrity-system/models"
	"match-integrity-system/seal"
	"match-integrity-system/services"
)

// AdminRole may reseal and trigger re-verification sweeps.
const AdminRole = "integrity-admin"

type verifyRequest struct {
	Record *models.MatchRecord `json:"record,omitempty"`
}

func SetupMatchRoutes(app *fiber.App, matchService *services.MatchService) {
	// 🔓 Read-only routes: still behind Gateway auth
	app.Get("/matches/:id", func(c *fiber.Ctx) error {
		rec, err := matchService.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(rec)
	})

	app.Get("/matches/:id/report", func(c *fiber.Ctx) error {
		report, err := matchService.LatestReport(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(report)
	})

	app.Post("/matches/:id/verify", func(c *fiber.Ctx) error {
		var req verifyRequest
		if len(c.Body()) > 0 {
			if err := json.Unmarshal(c.Body(), &req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body", "details": err.Error()})
			}
		}
		res, err := matchService.Verify(c.UserContext(), c.Params("id"), req.Record)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	app.Get("/proofs/:proof", func(c *fiber.Ctx) error {
		proof, err := url.PathUnescape(c.Params("proof"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid proof encoding", "details": err.Error()})
		}
		check, err := matchService.VerifyProof(c.UserContext(), proof)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(check)
	})

	// 🔐 Secured routes: require user context
	secured := app.Group("/matches", middleware.UserContextMiddleware())

	secured.Post("/simulate", func(c *fiber.Ctx) error {
		var req services.SimulateRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body", "details": err.Error()})
		}
		out, err := matchService.Simulate(c.UserContext(), req, middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	})

	secured.Post("/import", func(c *fiber.Ctx) error {
		var req struct {
			Record json.RawMessage `json:"record"`
		}
		if err := json.Unmarshal(c.Body(), &req); err != nil || len(req.Record) == 0 {
			details := "record is required"
			if err != nil {
				details = err.Error()
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body", "details": details})
		}
		rec, err := models.DecodeRecord(req.Record)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid match record", "details": err.Error()})
		}
		out, err := matchService.Import(c.UserContext(), rec, middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	})

	secured.Post("/:id/validate", func(c *fiber.Ctx) error {
		report, err := matchService.Validate(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(report)
	})

	secured.Post("/:id/seal", middleware.RequireRole(AdminRole), func(c *fiber.Ctx) error {
		sl, err := matchService.Seal(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		rec, err := matchService.Get(c.UserContext(), sl.MatchID)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"seal":  sl,
			"proof": seal.ProofString(sl, rec.FinalScore),
		})
	})

	secured.Post("/reverify", middleware.RequireRole(AdminRole), func(c *fiber.Ctx) error {
		summary, err := matchService.ReverifyAll(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(summary)
	})
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var (
		decodeErr *models.InputDecodeError
		parseErr  *seal.ParseError
		reproErr  *services.ReproductionError
	)
	switch {
	case errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrNoSeal),
		errors.Is(err, services.ErrNoReport),
		errors.Is(err, services.ErrLiveMatchNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found", "details": err.Error()})
	case errors.Is(err, services.ErrMatchExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "match already exists", "details": err.Error()})
	case errors.Is(err, services.ErrLiveMatchFinished):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "live match finished", "details": err.Error()})
	case errors.Is(err, services.ErrLiveInputsFull):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "input queue full", "details": err.Error()})
	case errors.As(err, &decodeErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input", "index": decodeErr.Index, "details": err.Error()})
	case errors.As(err, &parseErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed proof", "kind": parseErr.Kind, "details": err.Error()})
	case errors.As(err, &reproErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "record does not reproduce", "fields": reproErr.Fields, "details": err.Error()})
	case errors.Is(err, engine.ErrInvalidSetup), errors.Is(err, seal.ErrSerialization):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid match", "details": err.Error()})
	default:
		log.Printf("❌ [MATCH] %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error", "details": err.Error()})
	}
}
