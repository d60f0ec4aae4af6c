// cmd/cartctl/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"marketplace/internal/application/reconcile"
	usecase "marketplace/internal/application/usecase"
	stockdom "marketplace/internal/domain/stock"
)

// blockedError makes `gate` exit non-zero after printing its decision.
type blockedError struct{ notice string }

func (e *blockedError) Error() string { return "checkout blocked: " + e.notice }

type rootOptions struct {
	configFile string
	open       openFunc
}

func newRootCommand(open openFunc) *cobra.Command {
	opts := &rootOptions{open: open}

	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "Operate on buyer carts against live stock",
		Long:          "cartctl runs the cart reconciliation engine with the server's configuration and prints JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (defaults to $CART_CONFIG)")

	root.AddCommand(
		newReconcileCommand(opts),
		newGateCommand(opts),
		newAdjustCommand(opts),
		newStockCommand(opts),
		newShowCommand(opts),
	)
	return root
}

// withBackend opens the backend for one command invocation and closes it afterwards.
func (o *rootOptions) withBackend(cmd *cobra.Command, fn func(b backend) error) error {
	b, err := o.open(cmd.Context(), o.configFile)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer func() { _ = b.Close() }()
	return fn(b)
}

func newReconcileCommand(opts *rootOptions) *cobra.Command {
	var avatarID string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a cart against live stock and persist corrections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd, func(b backend) error {
				view, err := b.View(cmd.Context(), avatarID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), view)
			})
		},
	}
	cmd.Flags().StringVar(&avatarID, "avatar", "", "avatar id (cart owner)")
	_ = cmd.MarkFlagRequired("avatar")
	return cmd
}

type gateOutput struct {
	Proceed bool              `json:"proceed"`
	Notice  string            `json:"notice,omitempty"`
	Cart    *usecase.CartView `json:"cart,omitempty"`
}

func newGateCommand(opts *rootOptions) *cobra.Command {
	var avatarID string
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Run the pre-checkout stock gate (exit 1 when blocked)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd, func(b backend) error {
				d, view, err := b.Gate(cmd.Context(), avatarID)
				if err != nil && !reconcile.IsLookupFailure(err) {
					return err
				}
				out := gateOutput{Proceed: d.Proceed, Notice: d.Notice}
				if err == nil {
					out.Cart = &view
				}
				if perr := printJSON(cmd.OutOrStdout(), out); perr != nil {
					return perr
				}
				if !d.Proceed {
					return &blockedError{notice: d.Notice}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&avatarID, "avatar", "", "avatar id (cart owner)")
	_ = cmd.MarkFlagRequired("avatar")
	return cmd
}

func newAdjustCommand(opts *rootOptions) *cobra.Command {
	var (
		avatarID  string
		productID string
		qty       int
	)
	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Change one item's quantity with a single-item stock check",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd, func(b backend) error {
				res, err := b.Adjust(cmd.Context(), avatarID, productID, qty)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&avatarID, "avatar", "", "avatar id (cart owner)")
	cmd.Flags().StringVar(&productID, "product", "", "product id")
	cmd.Flags().IntVar(&qty, "qty", 0, "requested quantity")
	_ = cmd.MarkFlagRequired("avatar")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}

func newStockCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stock <productId>...",
		Short: "Print live stock levels in one batched lookup",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := stockdom.NormalizeIDs(args)
			if len(ids) == 0 {
				return fmt.Errorf("no product ids given")
			}
			return opts.withBackend(cmd, func(b backend) error {
				levels, err := b.Stock(cmd.Context(), ids)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stockdom.Levels(levels).Snapshots(ids))
			})
		},
	}
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	var avatarID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored cart document without reconciling it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd, func(b backend) error {
				c, err := b.Cart(cmd.Context(), avatarID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			})
		},
	}
	cmd.Flags().StringVar(&avatarID, "avatar", "", "avatar id (cart owner)")
	_ = cmd.MarkFlagRequired("avatar")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
