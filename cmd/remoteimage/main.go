package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/function61/gokit/app/aws/lambdautils"
	"github.com/function61/gokit/app/dynversion"
	"github.com/function61/gokit/log/logex"
	"github.com/function61/gokit/net/http/httputils"
	"github.com/function61/gokit/os/osutil"
	"github.com/function61/gokit/sync/taskrunner"
	"github.com/function61/remoteimage/pkg/appconfig"
	"github.com/spf13/cobra"
)

const (
	configEnvVar = "REMOTEIMAGE_CONFIG"
)

func main() {
	rootLogger := logex.StandardLogger()

	// AWS Lambda doesn't support giving argv, so we use an ugly hack to detect when
	// we're in Lambda
	if lambdautils.InLambda() {
		lambda.StartHandler(func() lambda.Handler {
			httpHandler, err := func() (http.Handler, error) {
				conf, err := loadConfig(os.Getenv(configEnvVar))
				if err != nil {
					return nil, err
				}

				return newHttpHandler(conf, rootLogger)
			}()
			if err != nil {
				// cannot exit in a normal way - we've to handle errors with Lambda's semantics
				// if we want any visibility into errors in Lambda
				return lambdaStaticErrorHandler(err, rootLogger)
			}

			return lambdautils.NewLambdaHttpHandlerAdapter(httpHandler)
		}())
		return // shouldn't ever reach here
	}

	app := &cobra.Command{
		Use:     os.Args[0],
		Short:   "Remote image source allowlist",
		Version: dynversion.Version,
	}

	configPath := os.Getenv(configEnvVar)
	app.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "Config file (.json, .yaml). Defaults to $"+configEnvVar+", then built-in default")

	addr := ":80"

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the standalone server",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitIfError(func() error {
				conf, err := loadConfig(configPath)
				if err != nil {
					return err
				}

				return runStandaloneRestApi(
					osutil.CancelOnInterruptOrTerminate(rootLogger),
					addr,
					conf,
					rootLogger)
			}())
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", addr, "Address to listen on")
	app.AddCommand(serveCmd)

	app.AddCommand(checkEntry(&configPath))
	app.AddCommand(validateEntry(&configPath))
	app.AddCommand(printConfigEntry(&configPath))
	app.AddCommand(clientEntry(rootLogger))

	exitIfError(app.Execute())
}

// for standalone use
func runStandaloneRestApi(ctx context.Context, addr string, conf *appconfig.Config, logger *log.Logger) error {
	handler, err := newHttpHandler(conf, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	tasks := taskrunner.New(ctx, logger)

	tasks.Start("listener "+srv.Addr, func(ctx context.Context) error {
		return httputils.CancelableServer(ctx, srv, srv.ListenAndServe)
	})

	return tasks.Wait()
}

// empty path means built-in default
func loadConfig(path string) (*appconfig.Config, error) {
	if path == "" {
		return appconfig.Default(), nil
	}

	return appconfig.Load(path)
}

func exitIfError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// TODO: move to lambdautils?
type errorLambdaHandler struct {
	error
}

func lambdaStaticErrorHandler(err error, logger *log.Logger) *errorLambdaHandler {
	logex.Levels(logger).Error.Println(err)

	return &errorLambdaHandler{err}
}

func (e *errorLambdaHandler) Invoke(_ context.Context, _ []byte) ([]byte, error) {
	return nil, e.error
}
