package main

import (
	"context"
	"fmt"

	"github.com/trezcool/evalboard/core/report"
)

// report mails the ranking report to `to`, or to the configured recipients.
func (cli *commandLine) report(ctx context.Context, to []string) error {
	opts := cli.reportOpts
	if len(to) > 0 {
		opts.Recipients = to
	}
	if err := report.NewSender(cli.store, cli.mailer, opts, cli.logger).Send(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "ranking report sent")
	return nil
}
