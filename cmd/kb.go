package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/confops/sponsor-pipeline/internal/kb"
)

var (
	kbLimit int
	kbType  string
)

var kbCmd = &cobra.Command{
	Use:   "kb <query>",
	Short: "Search the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		results, err := kb.NewSearcher(st).Query(ctx, args[0], kbLimit, kbType)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	kbCmd.Flags().IntVar(&kbLimit, "limit", 0, "max results (default 10)")
	kbCmd.Flags().StringVar(&kbType, "type", "", "filter by document type")
	rootCmd.AddCommand(kbCmd)
}
