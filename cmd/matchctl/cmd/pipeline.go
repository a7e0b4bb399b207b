package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score every directional pair of submitted users in the batch partition",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		partition, err := rt.partition()
		if err != nil {
			return err
		}
		batchNumber, err := rt.batchNumber(cmd)
		if err != nil {
			return err
		}
		n, err := rt.scoring.RunScoring(cmd.Context(), batchNumber, partition)
		if err != nil {
			return err
		}
		fmt.Printf("batch %d (%s): %d score rows written\n", batchNumber, partition, n)
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Pair scored users one-to-one and record algorithm matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		partition, err := rt.partition()
		if err != nil {
			return err
		}
		batchNumber, err := rt.batchNumber(cmd)
		if err != nil {
			return err
		}
		report, err := rt.matcher.RunMatching(cmd.Context(), batchNumber, partition)
		if err != nil {
			return err
		}
		fmt.Printf("batch %d (%s): %d users considered, %d pairs created\n",
			batchNumber, partition, report.TotalUsers, report.PairsCreated)
		return nil
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Hand unassigned scored candidates to approved cupids",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		partition, err := rt.partition()
		if err != nil {
			return err
		}
		batchNumber, err := rt.batchNumber(cmd)
		if err != nil {
			return err
		}
		n, err := rt.assignment.AssignCupids(cmd.Context(), batchNumber, partition)
		if err != nil {
			return err
		}
		fmt.Printf("batch %d (%s): %d assignments created\n", batchNumber, partition, n)
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild every assignment's shortlist from the score ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		partition, err := rt.partition()
		if err != nil {
			return err
		}
		batchNumber, err := rt.batchNumber(cmd)
		if err != nil {
			return err
		}
		n, err := rt.assignment.RefreshShortlists(cmd.Context(), batchNumber, partition)
		if err != nil {
			return err
		}
		fmt.Printf("batch %d (%s): %d shortlists refreshed\n", batchNumber, partition, n)
		return nil
	},
}

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Promote cupid selections into cupid_sent/cupid_received matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		partition, err := rt.partition()
		if err != nil {
			return err
		}
		batchNumber, err := rt.batchNumber(cmd)
		if err != nil {
			return err
		}
		report, err := rt.curation.PromoteSelections(cmd.Context(), batchNumber, partition)
		if err != nil {
			return err
		}
		fmt.Printf("batch %d (%s): %d pairs created, %d retagged, %d skipped\n",
			batchNumber, partition, report.Created, report.Updated, report.Skipped)
		return nil
	},
}

var revealCmd = &cobra.Command{
	Use:   "reveal",
	Short: "Reveal every unrevealed match in the batch partition",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		partition, err := rt.partition()
		if err != nil {
			return err
		}
		batchNumber, err := rt.batchNumber(cmd)
		if err != nil {
			return err
		}
		n, err := rt.batches.RevealMatches(cmd.Context(), batchNumber, partition)
		if err != nil {
			return err
		}
		fmt.Printf("batch %d (%s): %d matches revealed\n", batchNumber, partition, n)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe the batch's scores, matches and assignments and return it to pending",
	Long: `Wipe the batch's scores, matches and assignments, delete every
higher-numbered batch outright and return the batch to pending. This is
the only destructive pipeline operation; there is no undo.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		batchNumber, err := rt.batchNumber(cmd)
		if err != nil {
			return err
		}
		yes, err := cmd.Flags().GetBool("yes")
		if err != nil {
			return err
		}
		if !yes {
			return fmt.Errorf("reset deletes data for batch %d and every batch above it; re-run with --yes to confirm", batchNumber)
		}
		report, err := rt.batches.ResetBatch(cmd.Context(), batchNumber)
		if err != nil {
			return err
		}
		fmt.Printf("batch %d reset: %d scores, %d matches, %d assignments, %d later batches deleted\n",
			batchNumber, report.ScoresDeleted, report.MatchesDeleted, report.AssignmentsDeleted, report.BatchesDeleted)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the batch's pipeline state and counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		batchNumber, err := rt.batchNumber(cmd)
		if err != nil {
			return err
		}
		batch, err := rt.batches.GetByNumber(cmd.Context(), batchNumber)
		if err != nil {
			return err
		}
		fmt.Printf("batch %d: %s\n", batch.BatchNumber, batch.Status)
		fmt.Printf("  users:             %d\n", batch.TotalUsers)
		fmt.Printf("  pairs:             %d\n", batch.TotalPairs)
		fmt.Printf("  algorithm matches: %d\n", batch.AlgorithmMatches)
		fmt.Printf("  cupid matches:     %d\n", batch.CupidMatches)
		if batch.ScoringCompletedAt != nil {
			fmt.Printf("  scored at:         %s\n", batch.ScoringCompletedAt.Format("2006-01-02 15:04:05"))
		}
		if batch.MatchingCompletedAt != nil {
			fmt.Printf("  matched at:        %s\n", batch.MatchingCompletedAt.Format("2006-01-02 15:04:05"))
		}
		if batch.RevealedAt != nil {
			fmt.Printf("  revealed at:       %s\n", batch.RevealedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Open the next numbered batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		batch, err := rt.batches.CreateNext(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("opened batch %d\n", batch.BatchNumber)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "confirm the destructive reset")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(revealCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(nextCmd)
}
