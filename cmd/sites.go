package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"decayscope/pkg/gsc"
)

// sitesCmd lists the Search Console properties the token can read.
var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the Search Console properties available to your token",
	RunE: func(cmd *cobra.Command, args []string) error {
		proxy, _ := rootCmd.PersistentFlags().GetString("proxy")
		all, _ := cmd.Flags().GetBool("all")

		token, err := accessToken()
		if err != nil {
			return err
		}
		client, err := gsc.NewClient(token, proxy)
		if err != nil {
			return err
		}

		sites, err := client.ListSites(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROPERTY\tPERMISSION")
		for _, s := range sites {
			if !all && !s.HasFullAccess() {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\n", s.URL, s.PermissionLevel)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
	sitesCmd.Flags().Bool("all", false, "Include properties with restricted permission levels")
}
