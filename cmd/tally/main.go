package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/five82/tally/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := pflag.NewFlagSet("tally", pflag.ContinueOnError)
	configPath := fs.String("config", "", "override config path (optional)")
	prefsPath := fs.String("prefs", "", "override preferences path (optional)")
	apiURL := fs.String("api-url", "", "backend base URL, e.g. http://127.0.0.1:8000/api/v1 (optional)")
	verbose := fs.CountP("verbose", "v", "log more detail; repeat for debug and trace")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "tally: %v\n", err)
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		APIURL:     *apiURL,
		Verbosity:  *verbose,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "tally: %v\n", err)
		return 1
	}
	return 0
}
