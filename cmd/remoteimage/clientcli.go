package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/function61/gokit/encoding/jsonfile"
	"github.com/function61/gokit/os/osutil"
	"github.com/function61/remoteimage/pkg/appconfig"
	"github.com/function61/remoteimage/pkg/imageclient"
	"github.com/spf13/cobra"
)

func clientEntry(logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Commands against a running server",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "admission [serverUrl] [imageUrl]",
		Short: "Ask the server whether it would fetch an image URL",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			exitIfError(clientAdmission(
				osutil.CancelOnInterruptOrTerminate(logger),
				args[0],
				args[1],
				os.Stdout))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "config [serverUrl]",
		Short: "Show the server's configuration",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			exitIfError(clientConfig(
				osutil.CancelOnInterruptOrTerminate(logger),
				args[0],
				os.Stdout))
		},
	})

	return cmd
}

func clientAdmission(ctx context.Context, serverUrl string, imageUrl string, output io.Writer) error {
	decision, err := imageclient.New(serverUrl).Admission(ctx, imageUrl)
	if err != nil {
		return err
	}

	return jsonfile.Marshal(output, decision)
}

func clientConfig(ctx context.Context, serverUrl string, output io.Writer) error {
	conf, err := imageclient.New(serverUrl).Config(ctx)
	if err != nil {
		return err
	}

	return conf.Write(output, appconfig.FormatYAML)
}
