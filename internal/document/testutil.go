package document

import (
	"bytes"
	"fmt"
)

// buildTestPDF assembles a minimal but well-formed PDF with one empty page
// per entry in dims, each sized {w, h} in points. Object offsets are
// computed while writing so the xref table is always consistent.
func buildTestPDF(dims []PageDim) []byte {
	return buildTestPDFWithInfo(dims, "", "")
}

// buildTestPDFWithInfo is buildTestPDF plus a document information
// dictionary carrying the given title and author. Empty strings for both
// omit the dictionary entirely.
func buildTestPDFWithInfo(dims []PageDim, title, author string) []byte {
	var buf bytes.Buffer
	offsets := []int{0} // object 0 is the free-list head

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := ""
	for i := range dims {
		// pages object is 2; page objects start at 3, content streams follow
		kids += fmt.Sprintf("%d 0 R ", 3+i*2)
	}

	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, len(dims)))

	for i, d := range dims {
		pageNr := 3 + i*2
		contentNr := pageNr + 1
		writeObj(fmt.Sprintf(
			"%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.2f %.2f] /Resources << >> /Contents %d 0 R >>\nendobj\n",
			pageNr, d.Width, d.Height, contentNr))
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Length 0 >>\nstream\n\nendstream\nendobj\n", contentNr))
	}

	infoNr := 0
	if title != "" || author != "" {
		infoNr = 3 + 2*len(dims)
		entries := ""
		if title != "" {
			entries += fmt.Sprintf("/Title (%s) ", title)
		}
		if author != "" {
			entries += fmt.Sprintf("/Author (%s) ", author)
		}
		writeObj(fmt.Sprintf("%d 0 obj\n<< %s>>\nendobj\n", infoNr, entries))
	}

	xrefOffset := buf.Len()
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}

	trailerInfo := ""
	if infoNr > 0 {
		trailerInfo = fmt.Sprintf(" /Info %d 0 R", infoNr)
	}
	buf.WriteString(fmt.Sprintf(
		"trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets), trailerInfo, xrefOffset))

	return buf.Bytes()
}

// a4 is the ISO A4 page size in points.
var a4 = PageDim{Width: 595, Height: 842}
