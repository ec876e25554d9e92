package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hpkv-io/hpkv-go/internal/config"
	"github.com/hpkv-io/hpkv-go/internal/logger"
	"github.com/hpkv-io/hpkv-go/internal/mockserver"
	"github.com/hpkv-io/hpkv-go/pkg/hpkv"
)

func main() {
	err := newRootCmd().Execute()
	_ = logger.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hpkv: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hpkv",
		Short:         "Command-line client for the HPKV REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newSetCmd(),
		newGetCmd(),
		newDeleteCmd(),
		newIncrCmd(),
		newQueryCmd(),
		newMockCmd(),
	)
	return root
}

// newClient loads configuration, initializes logging and builds the API
// client used by the record commands.
func newClient() (*hpkv.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	client, err := hpkv.New(cfg.BaseURL, cfg.APIKey,
		hpkv.WithTimeout(cfg.Timeout),
		hpkv.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("init client (set HPKV_BASE_URL and HPKV_API_KEY): %w", err)
	}
	return client, nil
}

func newSetCmd() *cobra.Command {
	var partial bool
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Insert or update a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.Set(cmd.Context(), args[0], args[1], partial)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().BoolVar(&partial, "partial", false, "merge the value into an existing record instead of replacing it")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Retrieve a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
}

func newIncrCmd() *cobra.Command {
	var by int64
	cmd := &cobra.Command{
		Use:   "incr <key>",
		Short: "Atomically increment (or decrement) a numeric record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.Increment(cmd.Context(), args[0], by)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().Int64Var(&by, "by", 1, "delta to apply; negative values decrement")
	return cmd
}

func newQueryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "query <startKey> <endKey>",
		Short: "List records with keys in an inclusive range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.Query(cmd.Context(), args[0], args[1], limit)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", hpkv.DefaultQueryLimit, "maximum number of records to return")
	return cmd
}

func newMockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mock",
		Short: "Run a local HPKV-compatible mock server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMock()
		},
	}
}

func runMock() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	store, err := mockserver.NewStore(cfg.MockStoreType, cfg.MockBoltPath)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    cfg.MockListenAddr,
		Handler: mockserver.New(cfg.MockAPIKey, store, log),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("mock server listening", "addr", cfg.MockListenAddr, "store", cfg.MockStoreType)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("mock server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mock server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mock server: %w", err)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
