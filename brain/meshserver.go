package brain

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/static"
)

// NewMeshServer serves the generated mesh directory over plain HTTP
// with permissive CORS, so browser renderers on any origin can fetch
// PLY files.
func NewMeshServer(dir string) *fiber.App {
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"*"},
		AllowMethods: []string{"GET", "HEAD"},
	}))

	app.Get("/*", static.New(dir))

	return app
}
