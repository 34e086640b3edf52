package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/scrimcore/scrimcore/internal/config"
	"github.com/scrimcore/scrimcore/internal/database"
	"github.com/scrimcore/scrimcore/internal/identity"
	"github.com/spf13/cobra"
)

func identitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identities",
		Short: "Player identity catalog maintenance",
	}
}

// identitiesScanCmd runs the offline duplicate alias scan. This is deliberately
// a CLI command and not part of ingestion, upload latency stays bounded.
func identitiesScanCmd() *cobra.Command {
	var maxDistance int

	command := &cobra.Command{
		Use:   "scan",
		Short: "Detect likely duplicate player aliases via edit distance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, errConfig := config.Read()
			if errConfig != nil {
				return errConfig
			}

			if maxDistance <= 0 {
				maxDistance = conf.DupeScanThreshold
			}

			db := database.New(conf.DatabaseDSN, false, conf.DatabaseLogQueries)
			if errConnect := db.Connect(cmd.Context()); errConnect != nil {
				return errConnect
			}

			defer func() {
				_ = db.Close()
			}()

			identities := identity.NewIdentities(identity.NewRepository(db))

			candidates, errScan := identities.ScanDuplicates(cmd.Context(), maxDistance)
			if errScan != nil {
				return errScan
			}

			if len(candidates) == 0 {
				fmt.Fprintln(os.Stdout, "No duplicate candidates found")

				return nil
			}

			table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
				Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
				Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
			}))
			table.Header("NAME A", "NAME B", "DISTANCE")

			for _, candidate := range candidates {
				table.Append(candidate.NameA, candidate.NameB, strconv.Itoa(candidate.Distance))
			}

			return table.Render()
		},
	}

	command.Flags().IntVarP(&maxDistance, "distance", "n", 0, "Maximum edit distance considered a duplicate (default from config)")

	return command
}
