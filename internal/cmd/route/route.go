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

// Package route contains a command to compute the segment placement of
// a single distribution key.
package route

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/cockroachdb/seghash/internal/hasher"
	"github.com/cockroachdb/seghash/internal/sqltype"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Command returns a command that hashes one distribution key and
// prints the segment it lands on.
func Command() *cobra.Command {
	var segments int
	var seed uint64
	var types []string
	cmd := &cobra.Command{
		Args:  cobra.ArbitraryArgs,
		Short: "compute the segment placement of a distribution key",
		Use:   "route --segments 8 type:value ...",
		Example: strings.TrimSpace(`
# Route a single-column integer key in an 8-segment cluster.
seghash route --segments 8 int4:42

# Keys may have several columns; values with colons need the
# --types form.
seghash route --segments 16 int8:7 text:singapore
seghash route --segments 16 --types int8,timestamp 7 '2024-05-01 10:30:00'

# A bare null is a SQL NULL, which routes identically for every type.
seghash route --segments 8 int4:1 null

# A key with no columns at all places round-robin; supply a seed to
# make the placement repeatable.
seghash route --segments 8 --seed 1
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseRow(types, args)
			if err != nil {
				return err
			}

			var opts []hasher.Option
			if cmd.Flags().Changed("seed") {
				opts = append(opts, hasher.WithRand(rand.New(rand.NewPCG(seed, seed))))
			}
			h, err := hasher.New(segments, opts...)
			if err != nil {
				return err
			}

			seg, err := h.Segment(row)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hash 0x%08x -> segment %d of %d\n",
				h.Sum32(), seg, segments)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&segments, "segments", 0, "the number of segment databases in the cluster")
	f.Uint64Var(&seed, "seed", 0, "a seed for the round-robin placement of keyless rows")
	f.StringSliceVar(&types, "types", nil,
		"interpret the positional arguments as values of these comma-separated types")
	return cmd
}

// parseRow converts command-line arguments to datums. With explicit
// types, each argument is a bare literal matched to a type by
// position. Otherwise each argument carries its own type:value prefix.
// In both forms the word null, with no type, is a SQL NULL.
func parseRow(types, args []string) ([]sqltype.Datum, error) {
	if len(types) > 0 {
		if len(args) != len(types) {
			return nil, errors.Errorf("%d arguments for %d types", len(args), len(types))
		}
		row := make([]sqltype.Datum, len(args))
		for i, arg := range args {
			k, err := sqltype.ParseKind(types[i])
			if err != nil {
				return nil, err
			}
			if strings.EqualFold(arg, "null") {
				row[i] = sqltype.Null(k)
				continue
			}
			d, err := sqltype.Parse(k, arg)
			if err != nil {
				return nil, err
			}
			row[i] = d
		}
		return row, nil
	}

	row := make([]sqltype.Datum, len(args))
	for i, arg := range args {
		// Null hashes the same for every type, so it needs no prefix.
		if strings.EqualFold(arg, "null") {
			row[i] = sqltype.Null(sqltype.KindText)
			continue
		}
		name, value, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, errors.Errorf(
				"argument %q is not type:value; use --types for bare literals", arg)
		}
		k, err := sqltype.ParseKind(name)
		if err != nil {
			return nil, err
		}
		d, err := sqltype.Parse(k, value)
		if err != nil {
			return nil, err
		}
		row[i] = d
	}
	return row, nil
}
