// Command trackcat inspects CSV log files written by trackrecorder: it
// reports row counts, the covered time range, and basic fix-quality
// statistics, the same way the teacher's reader tool summarizes its own
// data files.
package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	showRows  bool
	rowCount  int
	rowOffset int
)

var rootCmd = &cobra.Command{
	Use:   "trackcat [file.csv]",
	Short: "Inspect CSV track logs written by trackrecorder",
	Long: `trackcat summarizes a track log: row count, time range covered, and
fix-quality distribution, and can optionally print the raw rows.

Examples:
  trackcat track.csv                  # show summary
  trackcat track.csv --rows --count 20  # show first 20 rows`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTrackcat(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&showRows, "rows", "r", false, "display raw rows")
	rootCmd.Flags().IntVarP(&rowCount, "count", "c", 10, "number of rows to display")
	rootCmd.Flags().IntVarP(&rowOffset, "offset", "o", 0, "row offset to start from")
}

const (
	colTimestamp = iota
	colLatitude
	colLongitude
	colSpeed
	colAltitude
	colCourse
	colSatellites
	colHDOP
	colFixQuality
)

func runTrackcat(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(header) != 9 || header[0] != "timestamp" {
		return fmt.Errorf("%s does not look like a trackrecorder log (unexpected header)", filename)
	}

	var (
		total, withFix int
		firstTs, lastTs string
	)
	var rows [][]string

	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		total++
		if firstTs == "" && rec[colTimestamp] != "" {
			firstTs = rec[colTimestamp]
		}
		if rec[colTimestamp] != "" {
			lastTs = rec[colTimestamp]
		}
		if q, err := strconv.Atoi(rec[colFixQuality]); err == nil && q >= 1 {
			withFix++
		}
		rows = append(rows, rec)
	}

	fmt.Printf("File:        %s\n", filename)
	fmt.Printf("Rows:        %d\n", total)
	fmt.Printf("With fix:    %d\n", withFix)
	fmt.Printf("Time range:  %s -> %s\n", firstTs, lastTs)

	if showRows {
		fmt.Println(strings.Join(header, ","))
		end := rowOffset + rowCount
		if end > len(rows) {
			end = len(rows)
		}
		if rowOffset > len(rows) {
			rowOffset = len(rows)
		}
		for _, rec := range rows[rowOffset:end] {
			fmt.Println(strings.Join(rec, ","))
		}
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
