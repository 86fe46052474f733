// Copyright 2025 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package catalog contains a command to print the built-in type and
// operator catalogs.
package catalog

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/seghash/internal/sqltype"
	"github.com/spf13/cobra"
)

// Command returns a command that lists the hashable types and the
// equality operators known to the redistribution planner.
func Command() *cobra.Command {
	return &cobra.Command{
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"types", "operators"},
		Short:     "print the type and operator catalogs",
		Use:       "catalog [types|operators]",
		RunE: func(cmd *cobra.Command, args []string) error {
			which := "all"
			if len(args) == 1 {
				which = args[0]
			}
			out := cmd.OutOrStdout()
			if which != "operators" {
				if err := printTypes(out); err != nil {
					return err
				}
			}
			if which == "all" {
				if _, err := fmt.Fprintln(out); err != nil {
					return err
				}
			}
			if which != "types" {
				if err := printOperators(out); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func printTypes(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 1, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tOID\tALIASES")
	for _, k := range sqltype.Kinds() {
		fmt.Fprintf(w, "%s\t%d\t%s\n",
			k, k.TypeOid(), strings.Join(sqltype.Aliases(k), ", "))
	}
	return w.Flush()
}

func printOperators(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 1, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATOR\tOID\tREDISTRIBUTABLE")
	for _, op := range sqltype.Operators() {
		yn := "no"
		if op.Redistributable() {
			yn = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", op, uint32(op), yn)
	}
	return w.Flush()
}
