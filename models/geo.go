package models

import "fmt"

// NotAvailable is reported for any geolocation field missing from a response.
const NotAvailable = "N/A"

// GeoInfo holds the fields shown after a connectivity check.
type GeoInfo struct {
	IP      string `json:"ip"`
	Country string `json:"country"`
	Region  string `json:"region"`
	Loc     string `json:"loc"`
	Org     string `json:"org"`
}

// Rows returns the labelled lines of the result table, in display order.
func (g GeoInfo) Rows() []string {
	return []string{
		fmt.Sprintf("IP: %s", g.IP),
		fmt.Sprintf("Country: %s", g.Country),
		fmt.Sprintf("Region: %s", g.Region),
		fmt.Sprintf("Location: %s", g.Loc),
		fmt.Sprintf("ISP Org: %s", g.Org),
	}
}
