package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagProcessJSON bool

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Categorize and score unprocessed articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		proc, train := a.processor()
		switch {
		case !train.OK:
			fmt.Printf("Statistical classifier unavailable (%s); using keywords only.\n", train.Reason)
		case train.Loaded:
			fmt.Printf("Loaded model (accuracy %.1f%%).\n", train.Accuracy*100)
		default:
			fmt.Printf("Trained model (accuracy %.1f%%).\n", train.Accuracy*100)
		}

		processed, err := proc.ProcessArticles(context.Background())
		if err != nil {
			return err
		}
		if flagProcessJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(processed)
		}
		for _, p := range processed {
			fmt.Printf("  %-20s %.2f  %+.2f  %s\n", p.Category, p.Confidence, p.Sentiment, p.Title)
		}
		fmt.Printf("Processed %d articles\n", len(processed))
		return nil
	},
}

func init() {
	processCmd.Flags().BoolVar(&flagProcessJSON, "json", false, "print results as JSON")
}
