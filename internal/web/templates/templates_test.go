package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

func TestErrorAlert_Escapes(t *testing.T) {
	var b strings.Builder
	if err := ErrorAlert("<script>x</script>", "Retry", "FILE002").Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	if strings.Contains(out, "<script>") {
		t.Errorf("message not escaped: %s", out)
	}
	if !strings.Contains(out, "FILE002") || !strings.Contains(out, "Retry") {
		t.Errorf("missing code or action: %s", out)
	}
}

func TestImportSummary(t *testing.T) {
	res := &core.ImportResult{
		ImportID:  "abc",
		TotalRows: 3,
		Success:   1,
		Failed:    2,
		FailedRows: []core.FailedRow{
			{RowNumber: 2, Reason: "Duplicate username in CSV"},
			{RowNumber: 3, Reason: "Missing username"},
		},
	}

	var b strings.Builder
	if err := ImportSummary(res).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	for _, want := range []string{"1 of 3 rows imported, 2 failed", "Row 2: Duplicate username in CSV", "Row 3: Missing username"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
	if strings.Contains(out, "import-cancelled") {
		t.Errorf("completed import should not show the cancelled notice: %s", out)
	}
}

func TestImportSummary_Cancelled(t *testing.T) {
	res := &core.ImportResult{
		TotalRows: 2,
		Success:   1,
		Failed:    1,
		Cancelled: true,
		FailedRows: []core.FailedRow{
			{RowNumber: 2, Reason: context.DeadlineExceeded.Error()},
		},
	}

	var b strings.Builder
	if err := ImportSummary(res).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	for _, want := range []string{"1 of 2 rows imported, 1 failed", "import-cancelled", "Row 2: context deadline exceeded"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}
