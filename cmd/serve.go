package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"decayscope/internal/server"
	"decayscope/pkg/storage"
)

// serveCmd exposes stored runs as a JSON API for dashboards.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored audit runs over a JSON API",
	Long: `Starts an HTTP server exposing /api/runs, /api/records and /api/stats.
Set server.username and server.password in the config to require basic auth.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")
		if dbPath == "" {
			dbPath = "decayscope.sqlite"
		}
		addr, _ := cmd.Flags().GetString("addr")

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		srv := server.New(db, viper.GetString("server.username"), viper.GetString("server.password"))
		return srv.Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: decayscope.sqlite in CWD)")
	serveCmd.Flags().String("addr", "127.0.0.1:8338", "Listen address")
}
