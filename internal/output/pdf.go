package output

import (
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/paperscrape/internal/extract"
)

var pdfLinkLabels = map[extract.LinkKind]string{
	extract.LinkPDF:           "pdf",
	extract.LinkSupplementary: "supp",
	extract.LinkExternalRef:   "arXiv",
}

// WritePDF renders a simple listing: one block per record with the title in
// bold, the authors below, and clickable link labels. Text outside cp1252 is
// replaced by the core font translator.
func WritePDF(outPath string, heading string, records []extract.Record) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(heading, true)
	pdf.SetFont("Helvetica", "", 10)
	pdf.AddPage()

	if h := strings.TrimSpace(heading); h != "" {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.MultiCell(0, 7, tr(h), "", "L", false)
		pdf.Ln(3)
	}

	for i, r := range records {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 5, tr(r.Title), "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
		if r.Authors != "" {
			pdf.MultiCell(0, 5, tr(r.Authors), "", "L", false)
		}
		wrote := false
		for _, k := range extract.LinkKinds {
			u, ok := r.Link(k)
			if !ok {
				continue
			}
			pdf.Write(5, "[")
			pdf.WriteLinkString(5, pdfLinkLabels[k], u)
			pdf.Write(5, "] ")
			wrote = true
		}
		if wrote {
			pdf.Ln(5)
		}
		if i < len(records)-1 {
			pdf.Ln(3)
		}
	}
	return pdf.OutputFileAndClose(outPath)
}
