// Copyright 2026 Peter Edge
//
// All rights reserved.

package main

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/ibrecon/cmd/ibrecon/internal/command/config"
	"github.com/bufdev/ibrecon/cmd/ibrecon/internal/command/pnl"
	"github.com/bufdev/ibrecon/cmd/ibrecon/internal/command/reconcile"
	"github.com/bufdev/ibrecon/cmd/ibrecon/internal/command/statement"
	"github.com/bufdev/ibrecon/cmd/ibrecon/internal/command/trades"
)

func main() {
	appcmd.Main(context.Background(), newRootCommand("ibrecon"))
}

// newRootCommand creates the root ibrecon command with all sub-commands.
func newRootCommand(name string) *appcmd.Command {
	builder := appext.NewBuilder(name)
	return &appcmd.Command{
		Use:                 name,
		Short:               "Parse Interactive Brokers Activity Statements and reconcile P&L",
		BindPersistentFlags: builder.BindRoot,
		SubCommands: []*appcmd.Command{
			config.NewCommand("config", builder),
			pnl.NewCommand("pnl", builder),
			reconcile.NewCommand("reconcile", builder),
			statement.NewCommand("statement", builder),
			trades.NewCommand("trades", builder),
		},
	}
}
