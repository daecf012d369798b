package buildsitemap

import "encoding/xml"

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Change frequencies
const (
	ChangeDaily  = "daily"
	ChangeWeekly = "weekly"
)

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type URL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}
