package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrMismatch is returned when the stored balance disagrees with the history.
var ErrMismatch = errors.New("balance does not match transaction history")

func newVerifyCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Replay the transaction log and compare it with the stored balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, closeFn, err := load(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			v := l.Verify()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "transactions: %d\n", v.Transactions)
			fmt.Fprintf(out, "stored:       %s\n", v.Stored.StringFixed(2))
			fmt.Fprintf(out, "replayed:     %s\n", v.Replayed.StringFixed(2))
			if !v.OK {
				return fmt.Errorf("%w: off by %s", ErrMismatch, v.Stored.Sub(v.Replayed).StringFixed(2))
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}
