// Command sheetctl prepares and inspects the subscriber Record Store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/janisto/subscriber-pipeline/internal/app"
	"github.com/janisto/subscriber-pipeline/internal/config"
	applog "github.com/janisto/subscriber-pipeline/internal/platform/logging"
	"github.com/janisto/subscriber-pipeline/internal/service/store"
)

// opener opens the Record Store; tests swap it for an in-memory store.
type opener func(ctx context.Context) (store.RecordStore, func() error, error)

func main() {
	defer func() { _ = applog.Sync() }()
	if err := newRootCmd(openConfiguredStore, os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func openConfiguredStore(ctx context.Context) (store.RecordStore, func() error, error) {
	cfg, err := config.LoadStorage()
	if err != nil {
		return nil, nil, err
	}
	return app.OpenRecordStore(ctx, cfg)
}

func newRootCmd(open opener, stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "sheetctl",
		Short:         "Prepare and inspect the subscriber list",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.AddCommand(
		newSetupCmd(open),
		newSeedCmd(open),
		newExportCmd(open),
	)
	return root
}

// withStore opens the store for the duration of fn.
func withStore(ctx context.Context, open opener, fn func(store.RecordStore) error) (err error) {
	s, closeStore, err := open(ctx)
	if err != nil {
		return fmt.Errorf("opening record store: %w", err)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}
