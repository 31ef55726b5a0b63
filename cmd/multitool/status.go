package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/multitool/internal/eventsvc"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show watcher counters and subscribers",
		Long: `Displays the running daemon's clipboard backend, watcher counters and the
subscribers currently attached to its event bus.

If a local daemon is running, the request is sent via the IPC socket. Pass
--server to target a daemon directly over TCP.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runStatus(cmd, v) },
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addClientFlags(cmd)

	return cmd
}

func runStatus(cmd *cobra.Command, v *viper.Viper) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.GetDuration("timeout"))
	defer cancel()

	client, transport, closeConn, err := connect(ctx, cmd, v)
	if err != nil {
		return err
	}
	defer closeConn()

	r, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	out := cmd.OutOrStdout()
	if v.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	printStatus(out, r, transport, v.GetString("source"))
	return nil
}

func printStatus(out io.Writer, r *eventsvc.Report, transport, mySource string) {
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", r.Version)
	fmt.Fprintf(w, "Transport:\t%s\n", transport)
	fmt.Fprintf(w, "Clipboard:\t%s\n", r.Backend)
	fmt.Fprintf(w, "Trigger:\t%s\n", r.Trigger)
	shortcut := r.Shortcut
	if shortcut == "" {
		shortcut = "-"
	}
	fmt.Fprintf(w, "Shortcut:\t%s\n", shortcut)
	if !r.Started.IsZero() {
		fmt.Fprintf(w, "Started:\t%s (%s)\n", r.Started.UTC().Format(time.RFC3339), fmtAge(r.Started))
	}
	lastChange := "-"
	if r.LastChange != nil {
		lastChange = fmtAge(*r.LastChange)
	}
	fmt.Fprintf(w, "Last change:\t%s\n", lastChange)
	fmt.Fprintln(w)

	s := r.Watcher
	fmt.Fprintf(w, "Ticks:\t%d\n", s.Ticks)
	fmt.Fprintf(w, "Reads:\t%d (%d failed, %d empty)\n", s.Reads, s.ReadErrors, s.Empty)
	fmt.Fprintf(w, "Changes:\t%d emitted, %d duplicates, %d undelivered\n", s.Emitted, s.Duplicates, s.EmitErrors)
	fmt.Fprintln(w)
	_ = w.Flush()

	if len(r.Subscribers) == 0 {
		fmt.Fprintln(out, "No subscribers.")
		return
	}

	tw := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "\tSUBSCRIBER\tTOPICS\tSINCE\tDELIVERED\tDROPPED\n")
	_, _ = fmt.Fprintf(tw, "\t----------\t------\t-----\t---------\t-------\n")
	for _, sub := range r.Subscribers {
		topics := "*"
		if len(sub.Topics) > 0 {
			topics = strings.Join(sub.Topics, ",")
		}
		marker := ""
		if mySource != "" && strings.HasPrefix(sub.ID, mySource+"/") {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			marker, sub.ID, topics, fmtAge(sub.SubscribedAt), sub.Delivered, sub.Dropped,
		)
	}
	_ = tw.Flush()
}

func fmtAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return t.Format("15:04:05")
}
