// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blast

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// dbTypeGenome is the database type that gets genome browser links.
const dbTypeGenome = "Genome"

// recordURL links to the record page of sourceID.
func recordURL(recordClass, projectID, sourceID string) string {
	return "showRecord.do?name=" + recordClass +
		"&project_id=" + url.QueryEscape(projectID) +
		"&source_id=" + url.QueryEscape(sourceID)
}

// insertURL wraps content[m.Start:m.End] in a link to href.
func insertURL(content string, m match, href string) string {
	var b strings.Builder
	b.Grow(len(content) + len(href) + 15)
	b.WriteString(content[:m.Start])
	b.WriteString(`<a href="`)
	b.WriteString(href)
	b.WriteString(`">`)
	b.WriteString(content[m.Start:m.End])
	b.WriteString("</a>")
	b.WriteString(content[m.End:])
	return b.String()
}

// insertAnchoredURL is insertURL preceded by a named anchor, so summary
// lines can link down to the alignment.
func insertAnchoredURL(content string, m match, href, anchor string) string {
	linked := insertURL(content, m, href)
	return linked[:m.Start] + `<a name="` + anchor + `"></a>` + linked[m.Start:]
}

// insertGenomeBrowserLinks prefixes every strand section of an alignment
// that has subject coordinates with a link to the genome browser spanning
// the section's smallest and largest coordinate.
func insertGenomeBrowserLinks(alignment, baseURL, projectID, sourceID string) string {
	var b strings.Builder
	for _, piece := range splitTrimTrailing(alignment, "Strand=") {
		lo, hi := math.MaxInt, math.MinInt
		for _, sm := range subjectPattern.FindAllStringSubmatch(piece, -1) {
			for _, g := range sm[1:] {
				n, err := strconv.Atoi(g)
				if err != nil {
					continue
				}
				lo = min(lo, n)
				hi = max(hi, n)
			}
		}
		switch {
		case lo <= hi:
			b.WriteString("\n<a href=\"")
			b.WriteString(baseURL)
			b.WriteString("/cgi-bin/gbrowse/")
			b.WriteString(strings.ToLower(projectID))
			b.WriteString("/?name=")
			b.WriteString(sourceID)
			b.WriteString(":")
			b.WriteString(strconv.Itoa(lo))
			b.WriteString("-")
			b.WriteString(strconv.Itoa(hi))
			b.WriteString(`"> <B><font color="red">Link to Genome Browser</font></B></a>,   Strand = `)
		case b.Len() > 0:
			b.WriteString("Strand = ")
		}
		b.WriteString(piece)
	}
	return b.String()
}
