package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lankasignal/lankasignal/internal/bayes"
)

var (
	flagSyntheticOnly bool
	flagTrainLookback string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain the statistical classifier",
	Long: `Train the title classifier on examples generated from the category keywords
plus articles already categorized in the store, and save the model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		lookback := a.cfg.TrainingLookbackHours
		if flagTrainLookback != "" {
			if lookback, err = parseHours(flagTrainLookback); err != nil {
				return fmt.Errorf("invalid --lookback value: %w", err)
			}
		}

		var res bayes.TrainResult
		if flagSyntheticOnly {
			res = a.classifier.Train(nil)
		} else {
			res = a.classifier.TrainFromStore(a.store, lookback)
		}
		if !res.OK {
			return fmt.Errorf("training failed: %s", res.Reason)
		}

		cats := make([]string, len(res.Categories))
		for i, c := range res.Categories {
			cats[i] = string(c)
		}
		fmt.Printf("Accuracy: %.1f%%\n", res.Accuracy*100)
		fmt.Printf("Samples: %d train, %d test (%d from stored articles)\n", res.TrainSamples, res.TestSamples, res.RealExamples)
		fmt.Printf("Categories: %s\n", strings.Join(cats, ", "))
		fmt.Printf("Model: %s\n", a.classifier.Info().Path)
		return nil
	},
}

func init() {
	trainCmd.Flags().BoolVar(&flagSyntheticOnly, "synthetic-only", false, "train on keyword examples only")
	trainCmd.Flags().StringVar(&flagTrainLookback, "lookback", "", "how far back to read stored articles (e.g., 30d)")
}
