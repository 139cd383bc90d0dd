package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/foliogen/internal/models"
)

func printSummary(summary *models.BatchSummary) {
	if summary == nil {
		return
	}
	writeSummary(os.Stdout, summary)
}

// writeSummary prints the human readable end-of-run report.
func writeSummary(w io.Writer, s *models.BatchSummary) {
	fmt.Fprintf(w, "\nRun %s (%s) finished: %s in %s\n", s.RunID, s.Mode, s.State, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "  Tenants:   %d succeeded, %d failed, %d skipped\n", s.TenantsSucceeded, s.TenantsFailed, s.TenantsSkipped)
	fmt.Fprintf(w, "  Assets:    %d processed, %d failed\n", s.AssetsProcessed, s.AssetsFailed)
	fmt.Fprintf(w, "  Documents: %d written, %d failed\n", s.DocumentsWritten, s.DocumentsFailed)

	if len(s.UnavailableProviders) > 0 {
		fmt.Fprintf(w, "  Unavailable providers: %s\n", strings.Join(s.UnavailableProviders, ", "))
	}

	for _, t := range s.Tenants {
		line := fmt.Sprintf("  - %s [%s]", t.TenantID, t.Status)
		if len(t.Symbols) > 0 {
			line += " " + strings.Join(t.Symbols, ", ")
		}
		if t.Error != "" {
			line += ": " + t.Error
		}
		fmt.Fprintln(w, line)
	}

	for _, e := range s.Errors {
		fmt.Fprintf(w, "  ! %s\n", e)
	}
}
