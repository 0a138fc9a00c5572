package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zimsave/zimsave_plus/internal/ledger"
)

func newShowCommand(load loader) *cobra.Command {
	var asJSON bool
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the balance, groups and goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, closeFn, err := load(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			s := l.Snapshot()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			return printState(cmd.OutOrStdout(), s, limit)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw state as JSON")
	cmd.Flags().IntVar(&limit, "transactions", 10, "number of recent transactions to list")

	return cmd
}

func printState(w io.Writer, s ledger.State, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Balance:\t$%s\n", s.Wallet.Balance.StringFixed(2))

	fmt.Fprintf(tw, "\nGroups (%d)\n", len(s.Groups))
	for _, g := range s.Groups {
		fmt.Fprintf(tw, "  %s\t%s\tpool $%s\tloan $%s\t%s%%\n",
			g.ID, g.Name, g.CurrentPool.StringFixed(2), g.ActiveLoanAmount.StringFixed(2), g.Progress().StringFixed(0))
	}

	fmt.Fprintf(tw, "\nGoals (%d)\n", len(s.Goals))
	for _, g := range s.Goals {
		fmt.Fprintf(tw, "  %s\t%s\t$%s / $%s\n",
			g.ID, g.Name, g.CurrentAmount.StringFixed(2), g.TargetAmount.StringFixed(2))
	}

	txs := s.Wallet.Transactions
	if limit >= 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	fmt.Fprintf(tw, "\nTransactions (%d of %d)\n", len(txs), len(s.Wallet.Transactions))
	for _, tx := range txs {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t$%s\t%s\n",
			tx.Date.Format("2006-01-02 15:04"), tx.Type, tx.Status, tx.Amount.StringFixed(2), tx.Description)
	}

	return tw.Flush()
}
