package commands

import (
	"fmt"
	"io"
	"strconv"

	"trade-lab/domain"
	"trade-lab/evolution"
	"trade-lab/repositories"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func membersCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "members",
		Short:       "List every member",
		Annotations: readOnly(),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := current.ledger.ListMembers(cmd.Context())
			if err != nil {
				return err
			}
			printMembers(cmd.OutOrStdout(), members)
			return nil
		},
	}
}

func assetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "assets <actor>",
		Short:       "List the collection of a member",
		Args:        cobra.ExactArgs(1),
		Annotations: readOnly(),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := current.ledger.GetMember(cmd.Context(), domain.ActorID(args[0]))
			if err != nil {
				return err
			}
			printAssets(cmd.OutOrStdout(), m, current.catalog)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var cursor string
	cmd := &cobra.Command{
		Use:         "history",
		Short:       "List settlement receipts, newest first",
		Annotations: readOnly(),
		RunE: func(cmd *cobra.Command, args []string) error {
			var from *string
			if cursor != "" {
				from = &cursor
			}
			receipts, next, err := current.history.GetReceipts(from)
			if err != nil {
				return err
			}
			printReceipts(cmd.OutOrStdout(), receipts)
			if next != nil && len(receipts) == historyOf {
				fmt.Fprintf(cmd.OutOrStdout(), "\nnext page: --cursor %s\n", *next)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cursor, "cursor", "", "resume after this receipt")
	cmd.Flags().IntVar(&historyOf, "limit", 20, "receipts per page")
	return cmd
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func printMembers(w io.Writer, members []repositories.Member) {
	table := newTable(w, []string{"Actor", "Balance", "Creatures", "Selected"})
	for _, m := range members {
		table.Append([]string{
			string(m.ID),
			strconv.FormatInt(m.Balance, 10),
			strconv.Itoa(len(m.Assets)),
			strconv.Itoa(m.Selected + 1),
		})
	}
	table.Render()
}

// printAssets shows positions 1-based, as actors type them.
func printAssets(w io.Writer, m repositories.Member, catalog *evolution.Catalog) {
	table := newTable(w, []string{"#", "ID", "Species", "Level", "Nature", "IV", "Flags"})
	for i, a := range m.Assets {
		table.Append([]string{
			strconv.Itoa(i + 1),
			a.ID.String()[:8],
			displayName(a, catalog),
			strconv.Itoa(a.Level),
			a.Nature,
			fmt.Sprintf("%.1f%%", a.IVPercentage()*100),
			flags(a, i == m.Selected),
		})
	}
	table.Render()
}

func printReceipts(w io.Writer, receipts []domain.SettlementReceipt) {
	table := newTable(w, []string{"Settled", "Session", "Between", "Transferred", "Skipped"})
	for _, r := range receipts {
		skipped := strconv.Itoa(len(r.Skipped))
		if !r.Complete() {
			skipped = color.Red.Render(skipped)
		}
		table.Append([]string{
			r.SettledAt.Format("2006-01-02 15:04:05"),
			r.SessionID.String()[:8],
			fmt.Sprintf("%s <-> %s", r.Participants[0], r.Participants[1]),
			strconv.Itoa(len(r.Transfers)),
			skipped,
		})
	}
	table.Render()
}

func displayName(a domain.Asset, catalog *evolution.Catalog) string {
	name := catalog.Name(a.SpeciesID)
	if a.Nickname != "" {
		name = fmt.Sprintf("%s (%s)", a.Nickname, name)
	}
	if a.Shiny {
		name = color.Yellow.Render(name)
	}
	return name
}

func flags(a domain.Asset, selected bool) string {
	var out string
	if selected {
		out += color.Green.Render("selected ")
	}
	if a.Favorite {
		out += color.Magenta.Render("favorite ")
	}
	if a.HeldItem == domain.Everstone {
		out += "everstone"
	}
	return out
}
