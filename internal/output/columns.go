package output

import "github.com/hyperifyio/paperscrape/internal/extract"

// Columns is the fixed column order of every tabular artifact. Records that
// lack a field get an empty cell.
var Columns = []string{
	"Title",
	"Authors",
	"PDF Link",
	"Supplementary Material Link",
	"arXiv Link",
}

var columnKinds = []extract.LinkKind{
	extract.LinkPDF,
	extract.LinkSupplementary,
	extract.LinkExternalRef,
}

func row(r extract.Record) []string {
	out := make([]string, 0, len(Columns))
	out = append(out, r.Title, r.Authors)
	for _, k := range columnKinds {
		u, _ := r.Link(k)
		out = append(out, u)
	}
	return out
}
