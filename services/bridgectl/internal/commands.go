package internal

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/pending"
)

// ParseStatus accepts a record status or "all".
func ParseStatus(s string) (pending.Status, error) {
	switch pending.Status(s) {
	case pending.StatusPending, pending.StatusSubmitted, pending.StatusFailed:
		return pending.Status(s), nil
	}
	if s == "all" || s == "" {
		return "", nil
	}
	return "", fmt.Errorf("unknown status %q (want pending, submitted, failed or all)", s)
}

func List(w io.Writer, store *pending.Store, status pending.Status, after uint64, limit int) error {
	records, err := store.List(status, after, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tKIND\tSTATUS\tATTEMPTS\tCREATED\tRESULT")
	for _, r := range records {
		result := r.TxID
		if r.Status == pending.StatusFailed {
			result = r.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			r.Seq, r.Kind, r.Status, r.Attempts, r.CreatedAt.Format(time.RFC3339), result)
	}
	return tw.Flush()
}

// Show writes the record, including its stored bundle, as indented JSON.
func Show(w io.Writer, store *pending.Store, arg string) error {
	seq, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid sequence number %q", arg)
	}
	r, err := store.Get(seq)
	if err != nil {
		return err
	}
	out, err := encoding.JSONiter.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}
