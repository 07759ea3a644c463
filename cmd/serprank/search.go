package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/serprank/internal/domain/search/query"
	logpkg "github.com/kailas-cloud/serprank/internal/logger"
)

var (
	flagPhrase  string
	flagWebsite string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search from the terminal and save its record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = a.logger.Sync() }()

		ctx := logpkg.ContextWithLogger(cmd.Context(), a.logger)
		out, err := a.search.Run(ctx, query.New(flagPhrase, flagWebsite))
		if err != nil {
			return fmt.Errorf("search %q: %w", flagPhrase, err)
		}

		w := cmd.OutOrStdout()
		for _, l := range out.Links() {
			marker := ""
			if out.IsMatch(l) {
				marker = " (MATCH)"
			}
			fmt.Fprintf(w, "%d. %s%s\n", l.Rank(), l.URL(), marker)
		}
		if flagWebsite != "" {
			if rank, ok := out.MatchedRank(); ok {
				fmt.Fprintf(w, "\n%s found at position %d.\n", flagWebsite, rank)
			} else {
				fmt.Fprintf(w, "\n%s not found in the available search results.\n", flagWebsite)
			}
		}
		fmt.Fprintf(w, "Saved to: %s\n", out.FilePath())
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVarP(&flagPhrase, "phrase", "p", "", "search phrase")
	searchCmd.Flags().StringVarP(&flagWebsite, "website", "w", "", "website domain or part to look for")
	_ = searchCmd.MarkFlagRequired("phrase")
}
