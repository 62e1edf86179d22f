package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alfredjeanlab/flowgraph/internal/events"
	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/alfredjeanlab/flowgraph/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Print the active nodes whenever they change",
	GroupID: "flow",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		once, _ := cmd.Flags().GetBool("once")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		w := &activeWatcher{}
		if err := w.refresh(ctx); err != nil {
			return err
		}
		if once {
			return nil
		}

		natsURL := os.Getenv("FLOW_NATS_URL")
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		if natsURL != "" {
			return w.watchNATS(ctx, natsURL)
		}
		return w.watchPoll(ctx, interval)
	},
}

// activeWatcher remembers the last printed active set.
type activeWatcher struct {
	last map[string]string // id -> label
}

// watchNATS re-queries after each burst of flow events.
func (w *activeWatcher) watchNATS(ctx context.Context, natsURL string) error {
	reconnectCh := make(chan struct{}, 1)

	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
			select {
			case reconnectCh <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(events.TopicAll)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if !jsonOutput {
				fmt.Println(ui.RenderMuted("event " + msg.Topic))
			}
			debounce.Reset(200 * time.Millisecond)
		case <-reconnectCh:
			debounce.Reset(0)
		case <-debounce.C:
			if err := w.refresh(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *activeWatcher) watchPoll(ctx context.Context, interval time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		if err := w.refresh(ctx); err != nil {
			return err
		}
	}
}

// refresh prints the active nodes if they differ from the last print.
func (w *activeWatcher) refresh(ctx context.Context) error {
	nodes, err := flowClient.ListActive(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("listing active nodes: %w", err)
	}
	if !w.changed(nodes) {
		return nil
	}
	if jsonOutput {
		printJSON(nodes)
		return nil
	}
	fmt.Printf("%s active at %s\n", ui.RenderAccent(fmt.Sprint(len(nodes))), time.Now().Format("15:04:05"))
	for _, n := range nodes {
		fmt.Printf("  %s %s\n", ui.RenderState(ui.StateActive, n.ID), n.Data.Label)
	}
	return nil
}

// changed reports whether nodes differ from the last seen set by id or
// label, and records nodes as seen.
func (w *activeWatcher) changed(nodes []model.Node) bool {
	next := make(map[string]string, len(nodes))
	for _, n := range nodes {
		next[n.ID] = n.Data.Label
	}
	diff := w.last == nil || len(next) != len(w.last)
	if !diff {
		for id, label := range next {
			if prev, ok := w.last[id]; !ok || prev != label {
				diff = true
				break
			}
		}
	}
	w.last = next
	return diff
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval without NATS")
	watchCmd.Flags().Bool("once", false, "print once and exit")
}
