// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package statement implements the "statement" command group.
package statement

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/ibrecon/cmd/ibrecon/internal/command/statement/statementparse"
)

// NewCommand returns a new statement command group.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Work with Activity Statement CSVs",
		SubCommands: []*appcmd.Command{
			statementparse.NewCommand("parse", builder),
		},
	}
}
