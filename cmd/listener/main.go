// Command pump-listener streams PumpPortal token creation events to the
// configured sinks, reconnecting forever until interrupted.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

// Version information, set at build time with -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("pump-listener failed")
		os.Exit(1)
	}
}
