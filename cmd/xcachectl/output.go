package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/omeyang/xcachekit/pkg/storage/xadvcache"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func parseFormat(s string) (string, error) {
	switch s {
	case formatText, formatJSON:
		return s, nil
	default:
		return "", newUsageError(fmt.Sprintf("--format 仅支持 text/json，得到 %q", s))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSimulateReport(w io.Writer, format string, r simulateReport) error {
	if format == formatJSON {
		return writeJSON(w, r)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "target\t%s\n", r.Outcome.Target)
	fmt.Fprintf(tw, "reads\t%d\n", r.Outcome.Reads)
	fmt.Fprintf(tw, "writes\t%d\n", r.Outcome.Writes)
	fmt.Fprintf(tw, "hit rate\t%.2f%%\n", r.Outcome.HitRate)
	fmt.Fprintf(tw, "size\t%d/%d\n", r.Stats.Size, r.Stats.MaxSize)
	fmt.Fprintf(tw, "avg access count\t%.2f\n", r.Stats.AverageAccessCount)
	fmt.Fprintf(tw, "evictions\t%d\n", r.Stats.Evictions)
	fmt.Fprintf(tw, "expirations\t%d\n", r.Stats.Expirations)
	for _, name := range slices.Sorted(maps.Keys(r.Metrics)) {
		fmt.Fprintf(tw, "%s\t%d\n", name, r.Metrics[name])
	}
	return tw.Flush()
}

func writeOutcomes(w io.Writer, format string, results []outcome) error {
	if format == formatJSON {
		return writeJSON(w, results)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tHIT RATE\tHITS\tMISSES\tWRITES")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%.2f%%\t%d\t%d\t%d\n", r.Target, r.HitRate, r.Hits, r.Misses, r.Writes)
	}
	return tw.Flush()
}

func writeRegistryStats(w io.Writer, format string, stats map[string]xadvcache.Stats) error {
	if format == formatJSON {
		return writeJSON(w, stats)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CACHE\tSTRATEGY\tSIZE\tHIT RATE\tEVICTIONS\tEXPIRATIONS")
	for _, name := range slices.Sorted(maps.Keys(stats)) {
		st := stats[name]
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%.2f%%\t%d\t%d\n",
			name, st.Strategy, st.Size, st.MaxSize, st.HitRate, st.Evictions, st.Expirations)
	}
	return tw.Flush()
}
