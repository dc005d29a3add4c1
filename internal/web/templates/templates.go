// Package templates renders the HTMX fragments returned to the admin UI.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

// ErrorAlert is the fragment swapped in when an HTMX request fails.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p class="alert-message">%s</p>`,
			templ.EscapeString(message))
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p class="alert-action">%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, `<p class="alert-code">Error code: %s</p></div>`, templ.EscapeString(code))
		return err
	})
}

// ImportSummary lists the outcome of an import, one line per failed row.
func ImportSummary(res *core.ImportResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<div class="import-summary" data-import-id="%s"><p>%d of %d rows imported, %d failed.</p>`,
			templ.EscapeString(res.ImportID), res.Success, res.TotalRows, res.Failed); err != nil {
			return err
		}
		if res.Cancelled {
			if _, err := io.WriteString(w, `<p class="import-cancelled">The import was stopped before every row was written.</p>`); err != nil {
				return err
			}
		}
		if len(res.FailedRows) > 0 {
			if _, err := io.WriteString(w, `<ul class="failed-rows">`); err != nil {
				return err
			}
			for _, fr := range res.FailedRows {
				if _, err := fmt.Fprintf(w, `<li>Row %d: %s</li>`, fr.RowNumber, templ.EscapeString(fr.Reason)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ul>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// PreviewSummary shows what an import of the previewed file would do.
func PreviewSummary(res *core.PreviewResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="preview-summary"><p>%d rows: %d insertable, %d duplicates, %d missing username.</p></div>`,
			res.TotalRows, res.Insertable, len(res.Duplicates), len(res.MissingUsername))
		return err
	})
}
