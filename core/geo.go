package core

import (
	"fmt"
	"io"
	"strings"

	"pcswitch/models"

	"github.com/tidwall/gjson"
)

var geoFields = []string{"ip", "country", "region", "loc", "org"}

// ParseGeo pulls the displayed fields out of a geolocation response. JSON
// objects are read with gjson. Anything else goes through legacyField, which
// assumes compact single-line "key":"value" text and is easily fooled.
func ParseGeo(body string) models.GeoInfo {
	values := make(map[string]string, len(geoFields))
	trimmed := strings.TrimSpace(body)
	if gjson.Valid(trimmed) && gjson.Parse(trimmed).IsObject() {
		results := gjson.GetMany(trimmed, geoFields...)
		for i, key := range geoFields {
			if results[i].Exists() && results[i].String() != "" {
				values[key] = results[i].String()
			} else {
				values[key] = models.NotAvailable
			}
		}
	} else {
		for _, key := range geoFields {
			values[key] = legacyField(body, key)
		}
	}
	return models.GeoInfo{
		IP:      values["ip"],
		Country: values["country"],
		Region:  values["region"],
		Loc:     values["loc"],
		Org:     values["org"],
	}
}

// legacyField finds the first occurrence of key anywhere in data, skips to
// the next ':' plus one more byte, and takes everything up to the next ','.
// A key that is a substring of another key or value matches there instead.
func legacyField(data, key string) string {
	start := strings.Index(data, key)
	if start < 0 {
		return models.NotAvailable
	}
	colon := strings.Index(data[start:], ":")
	if colon < 0 {
		colon = 0
	}
	begin := start + colon + 2
	if begin > len(data) {
		return models.NotAvailable
	}
	end := len(data)
	if comma := strings.Index(data[begin:], ","); comma >= 0 {
		end = begin + comma
	}
	return strings.Trim(strings.TrimSpace(data[begin:end]), `"`)
}

// RenderTable prints info as a bordered box sized to its longest row.
func RenderTable(w io.Writer, info models.GeoInfo) {
	rows := info.Rows()
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	width += 4

	boundary := strings.Repeat("=", width)
	fmt.Fprintln(w, boundary)
	for _, row := range rows {
		fmt.Fprintf(w, "| %-*s |\n", width-4, row)
	}
	fmt.Fprintln(w, boundary)
}
