package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/zpix/proxyscore/internal/model"
)

// PrintResultsTable prints a human-readable table of per-proxy results,
// ordered the way the verifier ranked them.
func PrintResultsTable(w io.Writer, results []model.CheckResult) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "PROXY\tPUBLIC IP\tLOCATION\tISP\tFRAUD\tRISK\tPROXY?\tVPN\tTOR\tMOBILE\tABUSE\tBOT\tLAT(ms)")

	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.Proxy.HostPort(),
			r.PublicIP,
			r.Location,
			r.ISP,
			r.FraudScore,
			r.Risk(),
			boolToYN(r.Flags.IsProxy),
			boolToYN(r.Flags.IsVPN),
			boolToYN(r.Flags.IsTor),
			boolToYN(r.Flags.IsMobile),
			boolToYN(r.Flags.RecentAbuse),
			boolToYN(r.Flags.IsBot),
			r.LatencyMs,
		)
	}

	tw.Flush()
}

// PrintFailures lists every proxy that did not complete the pipeline with the
// stage it died in.
func PrintFailures(w io.Writer, failures []model.CheckFailure) {
	if len(failures) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Failed (%d):\n", len(failures))
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	for _, f := range failures {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Proxy.HostPort(), f.Stage, f.Message)
	}
	tw.Flush()
}

// PrintSummary prints the aggregated batch stats.
func PrintSummary(w io.Writer, stats model.BatchStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Proxies checked:     %d\n", stats.TotalChecked)
	fmt.Fprintf(w, "  Completed:           %d\n", stats.Completed)
	fmt.Fprintf(w, "  Failed:              %d\n", stats.Failed)
	fmt.Fprintf(w, "  High risk (>=75):    %d\n", stats.HighRisk)
	fmt.Fprintf(w, "  Avg fraud score:     %.1f\n", stats.AvgFraudScore)
	fmt.Fprintf(w, "  Avg latency:         %.1f ms\n", stats.AvgLatencyMs)
	fmt.Fprintf(w, "  Success rate:        %.1f%%\n", stats.SuccessRatePct)
	fmt.Fprintf(w, "  Batch time:          %.2f s\n", float64(stats.TotalProcessingTimeMs)/1000.0)
}

// WriteFile writes results, failures and summary to a file in json or csv
// format, or as template-formatted text lines for "txt".
func WriteFile(path, format, template string, results []model.CheckResult, failures []model.CheckFailure, stats model.BatchStats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case "json":
		return writeJSON(f, results, failures, stats)
	case "csv":
		return writeCSV(f, results)
	case "txt":
		return writeTemplate(f, results, template)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeJSON(w io.Writer, results []model.CheckResult, failures []model.CheckFailure, stats model.BatchStats) error {
	payload := struct {
		Results  []model.CheckResult  `json:"results"`
		Failures []model.CheckFailure `json:"failures"`
		Summary  model.BatchStats     `json:"summary"`
	}{
		Results:  results,
		Failures: failures,
		Summary:  stats,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeCSV(w io.Writer, results []model.CheckResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"host", "port", "username", "password",
		"public_ip", "location", "isp",
		"fraud_score", "risk",
		"is_proxy", "is_vpn", "is_tor", "is_mobile", "recent_abuse", "is_bot",
		"latency_ms",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Proxy.Address,
			strconv.Itoa(int(r.Proxy.Port)),
			r.Proxy.Username,
			r.Proxy.Password,
			r.PublicIP,
			r.Location,
			r.ISP,
			strconv.Itoa(r.FraudScore),
			r.Risk().String(),
			boolToYN(r.Flags.IsProxy),
			boolToYN(r.Flags.IsVPN),
			boolToYN(r.Flags.IsTor),
			boolToYN(r.Flags.IsMobile),
			boolToYN(r.Flags.RecentAbuse),
			boolToYN(r.Flags.IsBot),
			strconv.FormatInt(r.LatencyMs, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// DefaultTemplate re-emits proxies in the same line format they came in as.
const DefaultTemplate = "{ip}:{port}:{username}:{password}"

// FormatTemplate renders one line per result, replacing {ip}, {port},
// {username}, {password}, {public_ip}, {location}, {isp}, {fraud_score} and
// {risk} placeholders.
func FormatTemplate(r model.CheckResult, template string) string {
	line := template
	line = strings.ReplaceAll(line, "{ip}", r.Proxy.Address)
	line = strings.ReplaceAll(line, "{port}", strconv.Itoa(int(r.Proxy.Port)))
	line = strings.ReplaceAll(line, "{username}", r.Proxy.Username)
	line = strings.ReplaceAll(line, "{password}", r.Proxy.Password)
	line = strings.ReplaceAll(line, "{public_ip}", r.PublicIP)
	line = strings.ReplaceAll(line, "{location}", r.Location)
	line = strings.ReplaceAll(line, "{isp}", r.ISP)
	line = strings.ReplaceAll(line, "{fraud_score}", strconv.Itoa(r.FraudScore))
	line = strings.ReplaceAll(line, "{risk}", r.Risk().String())
	return line
}

func writeTemplate(w io.Writer, results []model.CheckResult, template string) error {
	if template == "" {
		template = DefaultTemplate
	}
	for _, r := range results {
		if _, err := fmt.Fprintln(w, FormatTemplate(r, template)); err != nil {
			return err
		}
	}
	return nil
}

func boolToYN(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
