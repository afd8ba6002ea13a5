package commands

import (
	"fmt"
	"os"
	"strconv"

	"trade-lab/domain"
	"trade-lab/repositories"

	"github.com/BurntSushi/toml"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

type seedAsset struct {
	SpeciesID int        `toml:"species_id"`
	Nickname  string     `toml:"nickname"`
	Level     int        `toml:"level"`
	XP        int        `toml:"xp"`
	Nature    string     `toml:"nature"`
	IVs       domain.IVs `toml:"ivs"`
	Shiny     bool       `toml:"shiny"`
	HeldItem  int        `toml:"held_item"`
	Favorite  bool       `toml:"favorite"`
}

type seedMember struct {
	ID       string      `toml:"id"`
	Balance  int64       `toml:"balance"`
	Selected int         `toml:"selected"`
	Assets   []seedAsset `toml:"assets"`
}

type seedFile struct {
	Members []seedMember `toml:"members"`
}

func (a seedAsset) toAsset() domain.Asset {
	return domain.Asset{
		SpeciesID: a.SpeciesID,
		Nickname:  a.Nickname,
		Level:     a.Level,
		XP:        a.XP,
		Nature:    a.Nature,
		IVs:       a.IVs,
		Shiny:     a.Shiny,
		HeldItem:  a.HeldItem,
		Favorite:  a.Favorite,
	}
}

// parseSeed decodes members from TOML. Selected is 1-based in the file.
func parseSeed(data []byte) ([]repositories.Member, error) {
	var file seedFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("seed file: %w", err)
	}
	members := make([]repositories.Member, 0, len(file.Members))
	for _, sm := range file.Members {
		if sm.ID == "" {
			return nil, fmt.Errorf("seed file: member without id")
		}
		if sm.Balance < 0 {
			return nil, fmt.Errorf("seed file: %s has a negative balance", sm.ID)
		}
		selected := max(sm.Selected, 1) - 1
		if len(sm.Assets) > 0 && selected >= len(sm.Assets) {
			return nil, fmt.Errorf("seed file: %s selects creature %d of %d", sm.ID, sm.Selected, len(sm.Assets))
		}
		m := repositories.Member{ID: domain.ActorID(sm.ID), Balance: sm.Balance, Selected: selected}
		for _, a := range sm.Assets {
			m.Assets = append(m.Assets, a.toAsset())
		}
		members = append(members, m)
	}
	return members, nil
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.toml>",
		Short: "Create members from a TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			members, err := parseSeed(data)
			if err != nil {
				return err
			}
			for _, m := range members {
				if err := current.ledger.CreateMember(cmd.Context(), m); err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), color.Red.Sprintf("%s: %v", m.ID, err))
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), color.Green.Sprintf("%s: created with %d creature(s)", m.ID, len(m.Assets)))
			}
			return nil
		},
	}
}

func grantCmd() *cobra.Command {
	var asset seedAsset
	cmd := &cobra.Command{
		Use:   "grant <actor>",
		Short: "Give a creature to a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := current.catalog.Get(asset.SpeciesID); !ok {
				return fmt.Errorf("unknown species %d", asset.SpeciesID)
			}
			granted, err := current.ledger.GrantAsset(cmd.Context(), domain.ActorID(args[0]), asset.toAsset())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s received %s (%s)\n",
				args[0], current.catalog.Name(granted.SpeciesID), granted.ID)
			return nil
		},
	}
	cmd.Flags().IntVar(&asset.SpeciesID, "species", 0, "species id")
	cmd.Flags().IntVar(&asset.Level, "level", 5, "level")
	cmd.Flags().StringVar(&asset.Nickname, "nickname", "", "nickname")
	cmd.Flags().StringVar(&asset.Nature, "nature", "Hardy", "nature")
	cmd.Flags().BoolVar(&asset.Shiny, "shiny", false, "shiny")
	cmd.Flags().IntVar(&asset.HeldItem, "held-item", 0, "held item id")
	_ = cmd.MarkFlagRequired("species")
	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <actor> <delta>",
		Short: "Add or remove coins",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return err
			}
			actor := domain.ActorID(args[0])
			if err := current.ledger.AdjustBalance(cmd.Context(), actor, delta); err != nil {
				return err
			}
			balance, err := current.ledger.GetBalance(cmd.Context(), actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d coins\n", actor, balance)
			return nil
		},
	}
}

func favoriteCmd() *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "favorite <actor> <position>",
		Short: "Protect a creature from trade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			return current.ledger.SetFavorite(cmd.Context(), domain.ActorID(args[0]), position-1, !off)
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "clear the flag")
	return cmd
}

func selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <actor> <position>",
		Short: "Change the selected creature",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			return current.ledger.SetActiveIndex(cmd.Context(), domain.ActorID(args[0]), position-1)
		},
	}
}

func parsePosition(raw string) (int, error) {
	position, err := strconv.Atoi(raw)
	if err != nil || position < 1 {
		return 0, fmt.Errorf("position must be a number starting at 1, got %q", raw)
	}
	return position, nil
}
