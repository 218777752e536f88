// SPDX-License-Identifier: Apache-2.0
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"kanso/internal/config"
	"kanso/internal/irtext"
	"kanso/internal/logging"
	"kanso/internal/modcompare"
	"kanso/internal/result"
)

var log = logging.New("semdiff")

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: semdiff <left.sdir> <right.sdir> <seeds.txt> [config.yaml]")
		os.Exit(1)
	}

	leftPath, rightPath, seedsPath := os.Args[1], os.Args[2], os.Args[3]
	configPath := ""
	if len(os.Args) > 4 {
		configPath = os.Args[4]
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Errorf("%s", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	modL, err := irtext.ParseFile(leftPath)
	if err != nil {
		log.Errorf("%s", err)
		os.Exit(1)
	}
	modR, err := irtext.ParseFile(rightPath)
	if err != nil {
		log.Errorf("%s", err)
		os.Exit(1)
	}

	baseDir := ""
	if configPath != "" {
		baseDir = filepath.Dir(configPath)
	}
	patterns, err := cfg.LoadPatterns(baseDir)
	if err != nil {
		log.Errorf("%s", err)
		os.Exit(1)
	}

	seeds, err := readSeeds(seedsPath)
	if err != nil {
		log.Errorf("%s", err)
		os.Exit(1)
	}

	cmp := modcompare.New(modL, modR, cfg.Flags.ToCompareFlags(), cfg.KernelPrintFunctions, patterns)
	results := cmp.CompareAll(seeds)

	exitCode := 0
	for i, r := range results {
		printResult(seeds[i], r)
		if r.Kind == result.NotEqual {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

// readSeeds parses "left-symbol right-symbol" lines (spec.md §4.5's "seed
// list of symbol-name pairs"), skipping blank lines and "#"-comments.
func readSeeds(path string) ([]modcompare.SeedPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read seed list %s: %w", path, err)
	}
	defer f.Close()

	var seeds []modcompare.SeedPair
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected \"left right\", got %q", path, lineNo, line)
		}
		seeds = append(seeds, modcompare.SeedPair{Left: fields[0], Right: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read seed list %s: %w", path, err)
	}
	return seeds, nil
}

func printResult(seed modcompare.SeedPair, r *result.Result) {
	label := fmt.Sprintf("%s <-> %s", seed.Left, seed.Right)
	switch r.Kind {
	case result.Equal:
		color.Green("%-8s %s", "Equal", label)
	case result.AssumedEqual:
		color.Green("%-8s %s", "Assumed", label)
	case result.NotEqual:
		color.Red("%-8s %s", "NotEqual", label)
	case result.Unknown:
		color.Yellow("%-8s %s", "Unknown", label)
	}

	for _, d := range r.Differences {
		switch diff := d.(type) {
		case result.SyntaxDifference:
			fmt.Printf("    syntax difference in %s\n", diff.Name)
			fmt.Printf("      left:  %s\n", diff.BodyL)
			fmt.Printf("      right: %s\n", diff.BodyR)
		case result.TypeDifference:
			fmt.Printf("    type difference in %s (%s:%d vs %s:%d)\n",
				diff.Name, diff.LocL.File, diff.LocL.Line, diff.LocR.File, diff.LocR.Line)
		}
	}

	for _, m := range r.Missing {
		switch {
		case m.Left != nil && m.Right != nil:
			fmt.Printf("    missing definition on both sides: %s / %s\n", m.Left.Name, m.Right.Name)
		case m.Left != nil:
			fmt.Printf("    missing definition (left): %s\n", m.Left.Name)
		case m.Right != nil:
			fmt.Printf("    missing definition (right): %s\n", m.Right.Name)
		}
	}
}
