package app

import (
	"context"

	"github.com/cockroachdb/errors"
)

func Reboot(ctx context.Context, runner CommandRunner) error {
	if _, err := runner.Run(ctx, "reboot"); err != nil {
		return errors.Wrap(err, "reboot")
	}
	return nil
}
