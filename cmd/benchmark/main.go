// ABOUTME: Command-line runner for retrieval quality benchmarks
// ABOUTME: Executes the scenario suite and writes JSON results

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/speckeep/speckeep/benchmarks/retrieval"
)

func main() {
	scenarioID := flag.String("scenario", "", "Run one scenario by ID (S1..S5). Empty runs the full suite.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	scenarios := retrieval.Scenarios()
	if *scenarioID != "" {
		var picked []retrieval.Scenario
		for _, sc := range scenarios {
			if sc.ID == *scenarioID {
				picked = append(picked, sc)
			}
		}
		if len(picked) == 0 {
			log.Fatalf("Unknown scenario ID: %s", *scenarioID)
		}
		scenarios = picked
	}

	fmt.Println("========================================")
	fmt.Println("speckeep retrieval benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	runner := retrieval.NewRunner(*verbose)
	summary, err := runner.RunAll(context.Background(), scenarios)
	if err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}

	failed := 0
	for _, c := range summary.Cases {
		status := "PASS"
		if !c.Passed {
			status = "FAIL"
			failed++
		}
		fmt.Printf("%s\n", c.Name)
		fmt.Printf("  Precision@%d: %.3f\n", c.K, c.Precision)
		fmt.Printf("  Recall@%d:    %.3f\n", c.K, c.Recall)
		fmt.Printf("  MRR:         %.3f\n", c.MRR)
		fmt.Printf("  Status:      %s\n\n", status)
		if c.Detail != "" {
			fmt.Printf("  %s\n\n", c.Detail)
		}
	}

	fmt.Println("========================================")
	fmt.Println(summary.String())
	fmt.Println("========================================")

	raw, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal results: %v", err)
	}
	if err := os.WriteFile(*outputPath, raw, 0644); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
