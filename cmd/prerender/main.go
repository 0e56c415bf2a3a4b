// Command prerender writes the catalog homepage into dist/index.html.
package main

import (
	"fmt"
	"os"

	"pulsecart/internal/logger"
	"pulsecart/internal/prerender"
)

func main() {
	log := logger.New(logger.Options{Level: os.Getenv("LOG_LEVEL")})

	path, err := prerender.Run("dist")
	if err != nil {
		log.Error().Err(err).Msg("pre-render failed")
		os.Exit(1)
	}
	fmt.Printf("Static homepage generated at %s\n", path)
}
