package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"svw.info/watersort/internal/infrastructure/storage"
	"svw.info/watersort/internal/solver"
)

func newSolveCmd() *cobra.Command {
	var (
		in       string
		index    int
		budgetMs int
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Re-solve maps from a CSV file and report optimality",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := storage.NewCSV(in).Load(cmd.Context())
			if err != nil {
				return err
			}
			sv := solver.New(time.Duration(budgetMs) * time.Millisecond)
			for i, row := range rows {
				if index >= 0 && i != index {
					continue
				}
				res, stats := sv.Solve(cmd.Context(), row.State)
				score := sv.EstimateDifficulty(row.State, &res)
				status := "unsolved"
				if res.Solved {
					status = fmt.Sprintf("solved in %d moves", res.MinMoves)
				} else if res.TimedOut {
					status = fmt.Sprintf("timed out at bound %d", res.MinMoves)
				}
				fmt.Printf("row %d: %s (stored %d, distinct %d, score %.1f, stored %.1f, nodes %d, %v)\n",
					i, status, row.MinMoves, res.DistinctSolutions, score, row.DiffScore,
					stats.Nodes, stats.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "maps.csv", "input CSV path")
	cmd.Flags().IntVar(&index, "index", -1, "solve only this row (-1 = all)")
	cmd.Flags().IntVar(&budgetMs, "budget-ms", 2000, "solver budget per row")
	return cmd
}
