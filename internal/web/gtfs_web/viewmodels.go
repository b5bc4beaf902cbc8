package gtfs_web

type DashboardVM struct {
	Title        string
	Clock        ClockVM
	Cities       []string
	SelectedCity string
	Tiles        []Tile
	Menu         []MenuGroupVM
	Notice       string
	Compose      *ComposeVM
	Panel        PanelVM
	Version      string
}

type ClockVM struct {
	Date string
	Time string
}

type MenuGroupVM struct {
	Name    string
	Entries []MenuEntryVM
}

type MenuEntryVM struct {
	Name        string
	Title       string
	Description string
	// NeedsInput entries open through a compose form instead of directly.
	NeedsInput bool
	Active     bool
}

// ComposeVM is the param form shown before a panel that needs input is
// opened.
type ComposeVM struct {
	Name        string
	Title       string
	Description string
	Params      []ParamVM
}

type ParamVM struct {
	Name     string
	Label    string
	Value    string
	Required bool
	Hint     string
}

type PanelVM struct {
	Open  bool
	Name  string
	Title string
	// Kind is one of loading, error, empty or table.
	Kind    string
	Message string
	Error   string
	Invalid string
	Stale   bool
	Updated string

	Headers []string
	Rows    [][]string

	Page       int
	TotalPages int
	PageLabel  string
	Summary    string
	HasPrev    bool
	HasNext    bool

	Search      string
	Params      []ParamVM
	PollSeconds int
}
