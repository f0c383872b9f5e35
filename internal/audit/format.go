package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a TailResult as a text timeline.
func FormatTimeline(result *TailResult) string {
	if len(result.Entries) == 0 {
		return fmt.Sprintf("Run: %s | No entries found.\n", result.RunID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s | Region: %s | %s–%s UTC\n",
		result.RunID, strings.ToUpper(result.Region),
		formatDateTime(result.Summary.FirstTimestamp), formatTimeOnly(result.Summary.LastTimestamp))
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		ts := formatTimeOnly(e.Timestamp)
		switch e.Type {
		case TypeRunStart:
			fmt.Fprintf(&b, "%-10s %s\n", ts, "run started")
		case TypeRunEnd:
			fmt.Fprintf(&b, "%-10s run ended: %s (%d splashed)\n", ts, e.Reason, e.Splashed)
		default:
			status := strings.ToUpper(e.Outcome)
			if e.Outcome != OutcomeHit && e.Reason != "" {
				status += " " + e.Reason
			}
			fmt.Fprintf(&b, "%-10s %-30s %-28s %s\n", ts, truncate(strings.ToUpper(e.Target), 30), status, e.Class)
		}
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))
	return b.String()
}

// FormatJSON renders a TailResult as indented JSON.
func FormatJSON(result *TailResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tail result: %w", err)
	}
	return string(data), nil
}

func formatDateTime(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s TailSummary) string {
	parts := []string{fmt.Sprintf("%d engagements", s.Engagements)}
	if s.Hits > 0 {
		parts = append(parts, fmt.Sprintf("%d hit", s.Hits))
	}
	if s.Misses > 0 {
		parts = append(parts, fmt.Sprintf("%d miss", s.Misses))
	}
	if s.TransportFails > 0 {
		parts = append(parts, fmt.Sprintf("%d transport", s.TransportFails))
	}
	if s.Aborts > 0 {
		parts = append(parts, fmt.Sprintf("%d abort", s.Aborts))
	}
	return "Summary: " + strings.Join(parts, ", ") + "\n"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
