package gtfs_web

import (
	"net/url"
	"strconv"
	"strings"

	"tarediiran-industries.com/transit-dashboard/internal/panel"
)

// PanelParams picks the entry's declared params out of a submitted form.
// Blank values are left out so a required param reads as missing.
func PanelParams(form url.Values, entry panel.Entry) url.Values {
	params := url.Values{}
	for _, key := range paramKeys(entry) {
		if value := strings.TrimSpace(form.Get(key)); value != "" {
			params.Set(key, value)
		}
	}
	return params
}

func paramKeys(entry panel.Entry) []string {
	keys := make([]string, 0, len(entry.Required)+len(entry.Optional))
	keys = append(keys, entry.Required...)
	return append(keys, entry.Optional...)
}

// ParsePage reads a 1-based page number typed by the user.
func ParsePage(value string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return n, true
}
