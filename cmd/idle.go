package cmd

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/habedi/cardidle/idle"
	"github.com/habedi/cardidle/pkg/clierr"
	"github.com/habedi/cardidle/pkg/sound"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func idleCmd(svc *services) *cobra.Command {
	var noInput bool
	cmd := &cobra.Command{
		Use:   "idle",
		Short: "Idle every eligible title until no card drops remain",
		Long: "Idle every eligible title until no card drops remain.\n" +
			"While running, type p to pause, r to resume, s to skip the current title, x to stop and q to quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader
			if !noInput {
				in = cmd.InOrStdin()
			}
			return runIdle(cmd, svc, in)
		},
	}
	cmd.Flags().BoolVar(&noInput, "no-input", false, "Do not read commands from standard input")
	return cmd
}

// inputEvents maps the keys typed during an idle run to orchestrator events.
var inputEvents = map[string]idle.Event{
	"p": idle.EventPause,
	"r": idle.EventResume,
	"s": idle.EventSkip,
	"x": idle.EventStop,
	"g": idle.EventStart,
}

func runIdle(cmd *cobra.Command, svc *services, in io.Reader) error {
	if !svc.auth.SessionValid() {
		return clierr.New(clierr.Auth, "Not logged in. Run 'cardidle login' first.", idle.ErrNotReady)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v := svc.cfg.Values()
	if v.NoSleep {
		if err := svc.host.PreventSleep(); err != nil {
			log.Warn().Err(err).Msg("Failed to keep the system awake")
		} else {
			defer func() {
				if err := svc.host.AllowSleep(); err != nil {
					log.Warn().Err(err).Msg("Failed to release the sleep block")
				}
			}()
		}
	}

	printer := newStatusPrinter(cmd.OutOrStdout(), isTerminal(cmd.OutOrStdout()))
	defer printer.Close()

	o := svc.newOrchestrator(svc.newSupervisor(), printer.Update, func() {
		if err := sound.Play(v.SoundFile); err != nil {
			log.Warn().Err(err).Msg("Failed to play the completion sound")
		}
		cancel()
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return o.Run(gctx, nil)
	})
	if in != nil {
		lines := readLines(gctx, in)
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					if line == "q" {
						cancel()
						return nil
					}
					if ev, ok := inputEvents[line]; ok {
						o.Post(ev)
					} else if line != "" {
						cmd.Println("Unknown command:", line)
					}
				}
			}
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return clierr.New(clierr.Idle, "Idling stopped unexpectedly.", err)
	}
	cmd.Println("Idling finished.")
	return nil
}

// readLines forwards trimmed, lower-cased lines from r until r ends or ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- strings.ToLower(strings.TrimSpace(sc.Text())):
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
