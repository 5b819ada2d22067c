// Package table extracts a paginated statistics table from a rendered page.
//
// The Scraper drives an automation handle through a fixed sequence: load the
// page, dismiss a consent overlay, read the page count, then extract rows page
// by page. Every step below initial navigation degrades to a safe default
// instead of failing the run, so a layout change yields fewer rows rather than
// none.
package table

// Fields lists the output columns in serialization order.
var Fields = []string{
	"Player Name",
	"Apps",
	"Mins",
	"Goals",
	"xG",
	"Goals vs xG",
	"Shots",
	"SOT",
	"Conv %",
	"xG per Shot",
}

// Record is one player's row. All fields are raw cell text; an unreadable
// cell is the empty string.
type Record struct {
	PlayerName string `json:"player_name" yaml:"player_name"`
	Apps       string `json:"apps" yaml:"apps"`
	Mins       string `json:"mins" yaml:"mins"`
	Goals      string `json:"goals" yaml:"goals"`
	XG         string `json:"xg" yaml:"xg"`
	GoalsVsXG  string `json:"goals_vs_xg" yaml:"goals_vs_xg"`
	Shots      string `json:"shots" yaml:"shots"`
	SOT        string `json:"sot" yaml:"sot"`
	ConvPct    string `json:"conv_pct" yaml:"conv_pct"`
	XGPerShot  string `json:"xg_per_shot" yaml:"xg_per_shot"`
}

// Header returns the column names, matching Values.
func (r Record) Header() []string {
	return append([]string(nil), Fields...)
}

// Values returns the fields in Fields order.
func (r Record) Values() []string {
	return []string{
		r.PlayerName,
		r.Apps,
		r.Mins,
		r.Goals,
		r.XG,
		r.GoalsVsXG,
		r.Shots,
		r.SOT,
		r.ConvPct,
		r.XGPerShot,
	}
}

// recordFromCells builds a Record from the player name and the stat cells
// that follow it. Missing trailing cells stay empty.
func recordFromCells(name string, stats []string) Record {
	get := func(i int) string {
		if i < len(stats) {
			return stats[i]
		}
		return ""
	}
	return Record{
		PlayerName: name,
		Apps:       get(0),
		Mins:       get(1),
		Goals:      get(2),
		XG:         get(3),
		GoalsVsXG:  get(4),
		Shots:      get(5),
		SOT:        get(6),
		ConvPct:    get(7),
		XGPerShot:  get(8),
	}
}
