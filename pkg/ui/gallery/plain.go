package gallery

import (
	"fmt"
	"strings"

	"meshchat/pkg/comparison"
)

// RenderPlain formats one page without styling, for pipes and --plain.
func RenderPlain(records []comparison.Record, category string, page, perPage int) string {
	if perPage <= 0 {
		perPage = comparison.DefaultPerPage
	}
	if category == "" {
		category = AllCategories
	}
	p := comparison.Paginate(comparison.Filter(records, category), page, perPage)

	var b strings.Builder
	fmt.Fprintf(&b, "category: %s\n", category)
	fmt.Fprintf(&b, "page %d/%d (%d items)\n", p.Number, p.TotalPages, p.TotalItems)
	for i, rec := range p.Items {
		n := (p.Number-1)*perPage + i + 1
		fmt.Fprintf(&b, "\n%d. [%s] %s\n", n, rec.Category, strings.Join(strings.Fields(rec.Prompt), " "))
		fmt.Fprintf(&b, "   flux:  %s -> %s\n", rec.FluxURL, comparison.DownloadFilename(rec.FluxURL, rec.Prompt, "flux"))
		fmt.Fprintf(&b, "   dalle: %s -> %s\n", rec.DalleURL, comparison.DownloadFilename(rec.DalleURL, rec.Prompt, "dalle"))
	}
	return b.String()
}
