package cmdlog

import (
	"github.com/rs/zerolog/log"

	"hubclient/internal/metrics"
)

// Run wraps one CLI command with metrics and structured logging.
func Run(cmd string, f func() error) error {
	metrics.IncCommandRun(cmd)
	err := f()
	if err != nil {
		metrics.IncCommandError(cmd)
		log.Error().Err(err).Str("command", cmd).Msg("command failed")
	} else {
		log.Info().Str("command", cmd).Msg("command ok")
	}
	return err
}
