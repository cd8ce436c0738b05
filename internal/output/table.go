package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jbweber/rcopy/api/v1alpha1"
	"github.com/jbweber/rcopy/internal/rbd"
)

// TableFormatter formats resources as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatTransfers formats transfers as a table.
func (f *TableFormatter) FormatTransfers(transfers []*v1alpha1.ImageTransfer) (string, error) {
	if len(transfers) == 0 {
		return "No transfers\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "SOURCE\tDESTINATION\tHOST\tPHASE\tSENT\tDURATION\tMESSAGE")
	}

	for _, t := range transfers {
		phase := string(t.Status.Phase)
		if phase == "" {
			phase = "-"
		}

		host := dash(t.Spec.Host)
		if t.Spec.Host != "" && t.Spec.Port != 0 {
			host = fmt.Sprintf("%s:%d", t.Spec.Host, t.Spec.Port)
		}

		duration := "-"
		if d := t.Duration(); d > 0 {
			duration = d.Round(time.Second).String()
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Spec.Source, t.Spec.Destination, host, phase,
			formatBytes(uint64(t.Status.BytesSent)), duration, dash(firstLine(t.Status.Message)))
	}

	_ = w.Flush()
	return buf.String(), nil
}

// FormatImages formats image details as a table.
func (f *TableFormatter) FormatImages(images []*rbd.ImageInfo) (string, error) {
	if len(images) == 0 {
		return "No images found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "POOL\tNAME\tSIZE\tFORMAT\tDATA POOL\tFEATURES")
	}

	for _, img := range images {
		features := "-"
		if len(img.Features) > 0 {
			features = strings.Join(img.Features, ",")
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			dash(img.Pool), img.Name, formatBytes(img.Size), img.Format, dash(img.DataPool), features)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// formatBytes formats a byte count with binary units.
// Examples: "512 B", "1.5 KiB", "10.0 GiB"
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit && exp < 5; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
