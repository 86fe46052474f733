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

// Package skew contains a command to measure how evenly a stream of
// rows distributes across the segment databases of a cluster.
package skew

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachdb/seghash/internal/util/diag"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Command returns a command that routes a stream of rows and reports
// the resulting per-segment distribution.
func Command() *cobra.Command {
	cfg := &config{}
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Short: "measure the row distribution across segment databases",
		Use:   "skew",
		Example: strings.TrimSpace(`
# Route a million synthetic bigint keys into 64 segments.
seghash skew --segments 64

# A composite key with occasional null values.
seghash skew --segments 16 --types int8,text --nullRatio 0.01

# Replay a site-specific key stream defined in JavaScript.
seghash skew --segments 16 --script ./rows.js --rows 100000

# Measure the round-robin placement of keyless rows.
seghash skew --segments 8 --types none
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Preflight(); err != nil {
				return err
			}
			ctx := stopper.From(cmd.Context())

			if cfg.metricsAddr != "" {
				diags := diag.New(ctx)
				if err := diags.Register("config", cfg); err != nil {
					return err
				}
				cancel, err := metricsServer(cfg.metricsAddr, diags)
				if err != nil {
					return err
				}
				ctx.Defer(cancel)
			}

			r, err := newRunner(cfg)
			if err != nil {
				return err
			}
			rep, err := r.Run(ctx)
			if err != nil {
				return err
			}
			return rep.print(cmd.OutOrStdout())
		},
	}
	cfg.Bind(cmd.Flags())
	return cmd
}

// metricsServer starts a trivial HTTP server which runs until canceled.
func metricsServer(bindAddr string, diags *diag.Diagnostics) (func(), error) {
	mux := &http.ServeMux{}
	// The pprof handlers attach themselves to the system-default mux.
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	mux.Handle("/_/diag", diags.Handler())
	mux.Handle("/_/varz", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{
				EnableOpenMetrics: true,
				ErrorLog:          log.StandardLogger().WithField("promhttp", "true"),
			})))
	mux.HandleFunc("/_/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/_/", http.NotFoundHandler()) // Reserve all under /_/
	mux.Handle("/", http.NotFoundHandler())

	l, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	srv := &http.Server{Handler: mux}
	log.Infof("metrics server bound to %s", l.Addr())
	go srv.Serve(l)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
