package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/hirelens/hirelens/pkg/errx"
	"github.com/hirelens/hirelens/pkg/logx"
)

// newServer builds the Fiber app with middleware, health check and every
// API route registered.
func newServer(c *Container) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "HireLens API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		// Multipart uploads carry up to MAX_PDF_SIZE_MB; leave headroom
		// for the form envelope.
		BodyLimit: (c.Config.MaxPDFSizeMB + 2) << 20,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*", // Configure for production
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, HEAD",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/health", healthHandler(c))

	c.ResumeHandlers.RegisterRoutes(app)
	c.SearchHandlers.RegisterRoutes(app)
	c.RAGHandlers.RegisterRoutes(app)

	return app
}

// healthHandler pings every backing store. Any failure reports degraded
// with a 503 so load balancers rotate the instance out.
func healthHandler(c *Container) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		redisOK := c.Redis.Ping(ctx.Context()).Err() == nil
		graphOK := c.Neo4j.VerifyConnectivity(ctx.Context()) == nil
		vectorsOK := c.DB.PingContext(ctx.Context()) == nil

		status := "ok"
		code := fiber.StatusOK
		if !redisOK || !graphOK || !vectorsOK {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}
		return ctx.Status(code).JSON(fiber.Map{
			"status":  status,
			"redis":   redisOK,
			"graph":   graphOK,
			"vectors": vectorsOK,
		})
	}
}

// globalErrorHandler converts internal errors to standard HTTP responses.
func globalErrorHandler(c *fiber.Ctx, err error) error {
	// Fiber's own errors (404 route not found, body too large).
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error": e.Message,
			"code":  e.Code,
		})
	}

	if e, ok := errx.AsError(err); ok {
		return c.Status(e.HTTPStatus).JSON(e.ToHTTPResponse())
	}

	logx.Errorf("Internal Server Error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Internal Server Error",
		"type":    "INTERNAL",
		"code":    "INTERNAL_ERROR",
		"message": "An unexpected error occurred",
	})
}
