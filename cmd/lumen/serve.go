package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lumen-ui/lumen/pkg/dom"
	"github.com/lumen-ui/lumen/pkg/element"
	"github.com/lumen-ui/lumen/pkg/live"
	"github.com/lumen-ui/lumen/pkg/reactive"
)

func serveCmd() *cobra.Command {
	var addr string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo live server",
		Long: `Start a live server hosting the built-in demo app: a counter and
a keyed todo list, one isolated session per connection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if logLevel == "debug" {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			srv := live.NewServer(&live.ServerConfig{Addr: addr}, demoPages, logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (info, debug)")

	return cmd
}

// demoPages resolves demo routes. Anything unknown gets the main app.
func demoPages(path string) *element.Element {
	if path == "/about" {
		return element.El("div",
			element.El("h1", "lumen"),
			element.El("p", "A server-driven reactive UI core."),
		)
	}
	return demoApp()
}

// demoApp builds one session's tree: a counter plus a keyed todo list.
func demoApp() *element.Element {
	return element.Func("app", func() (*element.Element, error) {
		count := reactive.New(0)
		label := reactive.Derive(reactive.CurrentScope(), count, func(n int) string {
			return fmt.Sprintf("count: %d", n)
		})

		todos := reactive.New([]string{"learn signals", "wire the list"})

		return element.El("div",
			element.El("h1", "lumen demo"),
			element.El("p", element.SignalText(label)),
			element.El("button",
				element.Props{"onClick": func(dom.Event) {
					count.Update(func(n int) int { return n + 1 })
				}},
				"increment",
			),
			element.El("ul",
				element.ForEach(todos,
					func(t string) string { return t },
					func(t string) *element.Element {
						return element.El("li", t)
					},
				),
			),
		), nil
	})
}
