package main

import (
	"fmt"

	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	"github.com/spf13/cobra"
)

func newVerifyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Connect, verify connectivity and disconnect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, ext, err := c.attach(cmd.Context())
			if err != nil {
				return err
			}

			defer app.Shutdown(nil)

			settings := ext.Settings()

			fmt.Fprintf(c.out, "connected to %s (database %q, user %q)\n",
				log.RedactURI(settings.URI), settings.Database, settings.Auth.Username)

			return nil
		},
	}
}
