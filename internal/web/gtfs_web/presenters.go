package gtfs_web

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/panel"
)

var paramLabels = map[string]string{
	"date":            "Date",
	"route_id":        "Route ID",
	"trip_id":         "Trip ID",
	"start_stop_name": "Start stop",
	"end_stop_name":   "End stop",
}

var titleCaser = cases.Title(language.English)

func paramLabel(key string) string {
	if label, ok := paramLabels[key]; ok {
		return label
	}
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}

func paramHint(key string) string {
	if key == "date" {
		return "YYYYMMDD"
	}
	return ""
}

type dashboardInput struct {
	Cities  []City
	City    string
	Catalog *panel.Catalog
	Panel   panel.Panel
	Compose string
	Notice  string
	Now     time.Time
	Form    ParamDefaults
	Poll    int
}

// ParamDefaults pre-fills compose forms.
type ParamDefaults struct {
	Date string
}

func BuildClockVM(now time.Time) ClockVM {
	return ClockVM{
		Date: now.Format("01/02/2006"),
		Time: now.Format("15:04:05"),
	}
}

func buildDashboardVM(in dashboardInput) DashboardVM {
	vm := DashboardVM{
		Title:        "Transit Management System",
		Clock:        BuildClockVM(in.Now),
		SelectedCity: in.City,
		Notice:       in.Notice,
		Version:      common.Version,
	}
	for _, city := range in.Cities {
		vm.Cities = append(vm.Cities, city.Name)
	}
	if city, ok := findCity(in.Cities, in.City); ok {
		vm.Tiles = city.Tiles
	}

	active := ""
	if in.Panel != nil {
		active = in.Panel.Name()
	}
	groups := in.Catalog.Groups()
	for _, group := range in.Catalog.GroupNames() {
		menu := MenuGroupVM{Name: group}
		for _, entry := range groups[group] {
			menu.Entries = append(menu.Entries, MenuEntryVM{
				Name:        entry.Name,
				Title:       entry.Title,
				Description: entry.Description,
				NeedsInput:  len(entry.Required)+len(entry.Optional) > 0,
				Active:      entry.Name == active,
			})
		}
		vm.Menu = append(vm.Menu, menu)
	}

	if entry, ok := in.Catalog.Lookup(in.Compose); ok {
		vm.Compose = BuildComposeVM(entry, in.Form)
	}
	vm.Panel = BuildPanelVM(in.Panel, in.Now, in.Poll)
	return vm
}

func BuildComposeVM(entry panel.Entry, defaults ParamDefaults) *ComposeVM {
	compose := &ComposeVM{
		Name:        entry.Name,
		Title:       entry.Title,
		Description: entry.Description,
	}
	for _, key := range paramKeys(entry) {
		param := ParamVM{
			Name:     key,
			Label:    paramLabel(key),
			Required: slices.Contains(entry.Required, key),
			Hint:     paramHint(key),
		}
		if key == "date" {
			param.Value = defaults.Date
		}
		compose.Params = append(compose.Params, param)
	}
	return compose
}

// BuildPanelVM turns a panel snapshot into what panel.html draws. A nil
// panel gives a closed view model.
func BuildPanelVM(p panel.Panel, now time.Time, pollSeconds int) PanelVM {
	if p == nil {
		return PanelVM{Kind: "closed"}
	}
	if pollSeconds <= 0 {
		pollSeconds = 2
	}

	v := p.View()
	vm := PanelVM{
		Open:       v.State != panel.StateClosed,
		Name:       v.Name,
		Title:      v.Title,
		Kind:       v.Kind(),
		Invalid:    v.Invalid,
		Stale:      v.Stale,
		Headers:    v.Headers,
		Rows:       v.Rows,
		Page:       v.Page,
		TotalPages: v.TotalPages,
		PageLabel:  fmt.Sprintf("Page %d of %d", v.Page, v.TotalPages),
		HasPrev:    v.HasPrevious(),
		HasNext:    v.HasNext(),
		Search:     v.Search,
	}
	if v.Status == panel.StatusFailure {
		vm.Error = v.Err
	}
	if !v.FetchedAt.IsZero() {
		vm.Updated = formatAge(now, v.FetchedAt)
	}
	if v.State == panel.StateLoading {
		vm.PollSeconds = pollSeconds
	}

	switch vm.Kind {
	case "loading":
		vm.Message = "Loading " + strings.ToLower(v.Title) + "..."
	case "error":
		vm.Message = v.Err
	case "empty":
		if strings.TrimSpace(v.Search) != "" {
			vm.Message = fmt.Sprintf("No results match %q.", v.Search)
		} else {
			vm.Message = "No results found."
		}
	case "table":
		vm.Summary = fmt.Sprintf("Showing %d-%d of %d", v.First(), v.Last(), v.Filtered)
		if v.Filtered != v.Total {
			vm.Summary += fmt.Sprintf(" (filtered from %d)", v.Total)
		}
	}

	for key := range v.Params {
		vm.Params = append(vm.Params, ParamVM{Name: key, Label: paramLabel(key), Value: v.Params.Get(key), Hint: paramHint(key)})
	}
	slices.SortFunc(vm.Params, func(a, b ParamVM) int { return strings.Compare(a.Name, b.Name) })
	return vm
}

func formatAge(now, then time.Time) string {
	d := now.Sub(then)
	if d < 0 {
		d = 0
	}
	// Keep it readable at a glance
	if d < 10*time.Second {
		return fmt.Sprintf("%.1fs ago", d.Seconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}
