package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/rcopy/api/v1alpha1"
	"github.com/jbweber/rcopy/internal/rbd"
)

// createTestTransfer creates an ImageTransfer for testing.
func createTestTransfer(src, dest string, phase v1alpha1.TransferPhase, sent int64) *v1alpha1.ImageTransfer {
	t := v1alpha1.NewImageTransfer(src, dest)
	t.Spec.Host = "ceph-b"
	t.Spec.Port = 19000
	t.Status.Phase = phase
	t.Status.BytesSent = sent

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	t.Status.StartTime = v1alpha1.Time{Time: start}
	if phase == v1alpha1.TransferPhaseCompleted || phase == v1alpha1.TransferPhaseFailed {
		t.Status.CompletionTime = v1alpha1.Time{Time: start.Add(42 * time.Second)}
	}
	return t
}

func testImages() []*rbd.ImageInfo {
	return []*rbd.ImageInfo{
		{Pool: "rbd", Name: "disk-1", Size: 10 << 30, Format: 2, Features: []string{"layering", "exclusive-lock"}},
		{Pool: "rbd", Name: "disk-2", Size: 512, Format: 2, DataPool: "ec-data"},
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format  Format
		wantErr bool
	}{
		{FormatTable, false},
		{FormatYAML, false},
		{FormatJSON, false},
		{"xml", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f, err := NewFormatter(Options{Format: tt.format})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && f == nil {
				t.Error("NewFormatter() returned nil formatter")
			}
			if (ValidateFormat(string(tt.format)) != nil) != tt.wantErr {
				t.Errorf("ValidateFormat(%q) disagrees with NewFormatter", tt.format)
			}
		})
	}
}

func TestTableFormatter_FormatTransfers(t *testing.T) {
	transfers := []*v1alpha1.ImageTransfer{
		createTestTransfer("rbd/disk-1", "backup/disk-1", v1alpha1.TransferPhaseCompleted, 1536),
		createTestTransfer("rbd/disk-2", "backup/disk-2", v1alpha1.TransferPhaseFailed, 0),
	}
	transfers[1].Status.Message = "remote import failed\nsecond line"

	f := &TableFormatter{}
	out, err := f.FormatTransfers(transfers)
	if err != nil {
		t.Fatalf("FormatTransfers() unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "SOURCE") {
		t.Errorf("header = %q", lines[0])
	}
	for _, want := range []string{"rbd/disk-1", "backup/disk-1", "ceph-b:19000", "Completed", "1.5 KiB", "42s"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row 1 missing %q: %q", want, lines[1])
		}
	}
	if !strings.Contains(lines[2], "remote import failed") || strings.Contains(out, "second line") {
		t.Errorf("row 2 should carry only the first message line: %q", lines[2])
	}

	noHeaders := &TableFormatter{NoHeaders: true}
	out, _ = noHeaders.FormatTransfers(transfers[:1])
	if strings.Contains(out, "SOURCE") {
		t.Error("NoHeaders output contains header")
	}

	out, _ = f.FormatTransfers(nil)
	if out != "No transfers\n" {
		t.Errorf("empty output = %q", out)
	}
}

func TestTableFormatter_FormatImages(t *testing.T) {
	f := &TableFormatter{}
	out, err := f.FormatImages(testImages())
	if err != nil {
		t.Fatalf("FormatImages() unexpected error: %v", err)
	}

	for _, want := range []string{"POOL", "disk-1", "10.0 GiB", "layering,exclusive-lock", "disk-2", "512 B", "ec-data"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, _ = f.FormatImages(nil)
	if out != "No images found\n" {
		t.Errorf("empty output = %q", out)
	}
}

func TestJSONFormatter(t *testing.T) {
	f := &JSONFormatter{}

	out, err := f.FormatTransfers([]*v1alpha1.ImageTransfer{
		createTestTransfer("rbd/disk", "backup/disk", v1alpha1.TransferPhaseCompleted, 10),
	})
	if err != nil {
		t.Fatalf("FormatTransfers() unexpected error: %v", err)
	}

	var list v1alpha1.ImageTransferList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if list.Kind != v1alpha1.ImageTransferListKind {
		t.Errorf("Kind = %q", list.Kind)
	}
	if len(list.Items) != 1 || list.Items[0].Status.BytesSent != 10 {
		t.Errorf("Items = %+v", list.Items)
	}

	out, err = f.FormatImages(testImages())
	if err != nil {
		t.Fatalf("FormatImages() unexpected error: %v", err)
	}
	if !strings.Contains(out, `"data_pool": "ec-data"`) {
		t.Errorf("image JSON missing data_pool:\n%s", out)
	}

	out, _ = f.FormatImages(nil)
	if out != "[]\n" {
		t.Errorf("empty images = %q", out)
	}
}

func TestYAMLFormatter(t *testing.T) {
	f := &YAMLFormatter{}

	out, err := f.FormatTransfers([]*v1alpha1.ImageTransfer{
		createTestTransfer("rbd/disk", "backup/disk", v1alpha1.TransferPhaseCompleted, 10),
	})
	if err != nil {
		t.Fatalf("FormatTransfers() unexpected error: %v", err)
	}

	var list v1alpha1.ImageTransferList
	if err := yaml.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, out)
	}
	if len(list.Items) != 1 || list.Items[0].Spec.Destination != "backup/disk" {
		t.Errorf("Items = %+v", list.Items)
	}

	out, err = f.FormatImages(testImages())
	if err != nil {
		t.Fatalf("FormatImages() unexpected error: %v", err)
	}
	if strings.Count(out, "---\n") != 1 {
		t.Errorf("expected two documents:\n%s", out)
	}
	if !strings.Contains(out, "object_size:") {
		t.Errorf("YAML should use rbd key names:\n%s", out)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
		{10 << 30, "10.0 GiB"},
		{3 << 40, "3.0 TiB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
