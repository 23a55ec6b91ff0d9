// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pnl implements the "pnl" command group.
package pnl

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/ibrecon/cmd/ibrecon/internal/command/pnl/pnlderive"
)

// NewCommand returns a new pnl command group.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Work with per-symbol daily P&L records",
		SubCommands: []*appcmd.Command{
			pnlderive.NewCommand("derive", builder),
		},
	}
}
