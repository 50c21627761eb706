package cli

import (
	"log"
	"os"

	"github.com/rileyhilliard/televisor/internal/errors"
)

// logToFile sends the standard logger to path, appending.
func logToFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't open log file "+path,
			"Check the path and permissions")
	}
	log.SetOutput(f)
	return nil
}
