package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/souschef/internal/clock"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/httpapi"
	"github.com/hammamikhairi/souschef/internal/speech"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the narration event feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SOUSCHEF_HTTP_ADDR)")
	return cmd
}

// serve blocks until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := a.wire(ctx)
	if err != nil {
		return err
	}

	// Narration goes to the SSE feed and, when configured, the local
	// speaker too.
	events := httpapi.NewBroker(a.cfg.HTTP.EventsBuffer, clock.System{}, a.log.Named("events"))
	var notifier domain.Notifier = events
	if d.narrator != nil {
		notifier = speech.NewSpeakingNotifier(events, d.narrator, a.log.Named("voice"))
	}

	eng := a.engine(d, notifier)
	go eng.Run(ctx)

	sup := a.supervisor(d.timers, notifier)
	sup.Start(ctx)
	defer sup.Stop()

	opts := []httpapi.Option{
		httpapi.WithCORSOrigins(a.cfg.HTTP.CORSOrigins...),
		httpapi.WithTimeouts(a.cfg.HTTP.ReadTimeout.Std(), a.cfg.HTTP.IdleTimeout.Std()),
	}
	if d.assistant != nil {
		opts = append(opts, httpapi.WithAssistant(d.assistant))
	}
	srv := httpapi.NewServer(eng, d.recipes, d.pantry, events, a.log.Named("http"), opts...)
	return srv.ListenAndServe(ctx, a.cfg.HTTP.Addr)
}
