package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/function61/remoteimage/pkg/appconfig"
	"github.com/spf13/cobra"
)

var errSomeDenied = errors.New("one or more URLs denied")

func checkEntry(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check [imageUrl...]",
		Short: "Test image URLs against the remote patterns",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := func() error {
				conf, err := loadConfig(*configPath)
				if err != nil {
					return err
				}

				return check(conf, args, os.Stdout)
			}()

			if errors.Is(err, errSomeDenied) { // distinguishable from config errors
				os.Exit(2)
			}

			exitIfError(err)
		},
	}
}

func validateEntry(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate config",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitIfError(func() error {
				conf, err := loadConfig(*configPath)
				if err != nil {
					return err
				}

				return validate(conf, os.Stdout)
			}())
		},
	}
}

func printConfigEntry(configPath *string) *cobra.Command {
	format := string(appconfig.FormatJSON)

	cmd := &cobra.Command{
		Use:   "print-config",
		Short: "Print normalized config",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitIfError(func() error {
				outputFormat, err := appconfig.ParseFormat(format)
				if err != nil {
					return err
				}

				conf, err := loadConfig(*configPath)
				if err != nil {
					return err
				}

				return conf.Write(os.Stdout, outputFormat)
			}())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", format, "Output format (json|yaml)")

	return cmd
}

func check(conf *appconfig.Config, imageUrls []string, output io.Writer) error {
	patterns, err := conf.RemotePatterns()
	if err != nil {
		return err
	}

	someDenied := false

	for _, imageUrl := range imageUrls {
		rule, allowed := patterns.Match(imageUrl)
		if allowed {
			fmt.Fprintf(output, "allow\t%s\t%s\n", imageUrl, rule)
		} else {
			someDenied = true
			fmt.Fprintf(output, "deny\t%s\n", imageUrl)
		}
	}

	if someDenied {
		return errSomeDenied
	}

	return nil
}

func validate(conf *appconfig.Config, output io.Writer) error {
	patterns, err := conf.RemotePatterns()
	if err != nil {
		return err
	}

	outputMode := conf.Output
	if outputMode == appconfig.OutputDefault {
		outputMode = "(default)"
	}

	_, err = fmt.Fprintf(output, "ok: output=%s reactStrictMode=%t swcMinify=%t remotePatterns=%d\n",
		outputMode,
		conf.ReactStrictMode,
		conf.SwcMinify,
		patterns.Len())
	return err
}
