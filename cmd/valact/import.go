package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carractuarial/valact/internal/rates"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the CSV rate files into the SQLite rate store",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.Data.Dir
		}
		dbPath, _ := cmd.Flags().GetString("db")
		if dbPath == "" {
			dbPath = cfg.Data.SQLitePath
		}

		db, err := rates.OpenSQLite(cmd.Context(), dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.Import(cmd.Context(), rates.NewCSVSource(dir))
		if err != nil {
			return err
		}
		logger.Info("imported rates", "rows", n, "from", dir, "to", dbPath)
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into %s\n", n, dbPath)
		return nil
	},
}

func init() {
	importCmd.Flags().String("dir", "", "directory holding the CSV rate files (default: data.dir)")
	importCmd.Flags().String("db", "", "SQLite database path (default: data.sqlite_path)")
}
