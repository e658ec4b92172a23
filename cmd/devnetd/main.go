package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/0xSpaceShard/starknet-devnet-go/node"
)

func main() {
	cfg := new(node.Config)
	cmd := NewCmd(cfg, func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cfg)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *node.Config) error {
	n, err := node.New(cfg)
	if err != nil {
		return fmt.Errorf("construct node: %w", err)
	}
	return n.Run(ctx)
}
