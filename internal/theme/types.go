package theme

import (
	"encoding/json"
	"regexp"

	"github.com/cockroachdb/errors"
)

type Hex string

type PaletteHex struct {
	Border       Hex `json:"border"`
	BorderMuted  Hex `json:"border_muted"`
	PopupBorder  Hex `json:"popup_border"`
	Danger       Hex `json:"danger"`
	Success      Hex `json:"success"`
	Warning      Hex `json:"warning"`
	TextPrimary  Hex `json:"text_primary"`
	TextMuted    Hex `json:"text_muted"`
	SelectionBg  Hex `json:"selection_bg"`
	SelectionFg  Hex `json:"selection_fg"`
	Title        Hex `json:"title"`
	HelpText     Hex `json:"help_text"`
	StatusText   Hex `json:"status_text"`
	ColumnHeader Hex `json:"column_header"`
	Timestamp    Hex `json:"timestamp"`
	DetailsLabel Hex `json:"details_label"`
	DetailsValue Hex `json:"details_value"`
}

type ThemeFile struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Version int        `json:"version"`
	Colors  PaletteHex `json:"colors"`
}

// PaletteResolved holds lipgloss color strings: hex on truecolor
// terminals, xterm-256 indexes otherwise.
type PaletteResolved struct {
	Border       string
	BorderMuted  string
	PopupBorder  string
	Danger       string
	Success      string
	Warning      string
	TextPrimary  string
	TextMuted    string
	SelectionBg  string
	SelectionFg  string
	Title        string
	HelpText     string
	StatusText   string
	ColumnHeader string
	Timestamp    string
	DetailsLabel string
	DetailsValue string
}

type slot struct {
	key string
	hex *Hex
	out *string
}

// slots pairs every palette key with its source and resolved field.
func slots(p *PaletteHex, r *PaletteResolved) []slot {
	return []slot{
		{"border", &p.Border, &r.Border},
		{"border_muted", &p.BorderMuted, &r.BorderMuted},
		{"popup_border", &p.PopupBorder, &r.PopupBorder},
		{"danger", &p.Danger, &r.Danger},
		{"success", &p.Success, &r.Success},
		{"warning", &p.Warning, &r.Warning},
		{"text_primary", &p.TextPrimary, &r.TextPrimary},
		{"text_muted", &p.TextMuted, &r.TextMuted},
		{"selection_bg", &p.SelectionBg, &r.SelectionBg},
		{"selection_fg", &p.SelectionFg, &r.SelectionFg},
		{"title", &p.Title, &r.Title},
		{"help_text", &p.HelpText, &r.HelpText},
		{"status_text", &p.StatusText, &r.StatusText},
		{"column_header", &p.ColumnHeader, &r.ColumnHeader},
		{"timestamp", &p.Timestamp, &r.Timestamp},
		{"details_label", &p.DetailsLabel, &r.DetailsLabel},
		{"details_value", &p.DetailsValue, &r.DetailsValue},
	}
}

var hexRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (p PaletteHex) Validate() error {
	for _, s := range slots(&p, &PaletteResolved{}) {
		if !hexRe.MatchString(string(*s.hex)) {
			return errors.Newf("invalid hex color for %s: %q", s.key, string(*s.hex))
		}
	}
	return nil
}

// ParseThemeFile decodes a theme on top of the default palette, so a
// file may override only some colors.
func ParseThemeFile(b []byte) (ThemeFile, error) {
	t := ThemeFile{
		Version: 1,
		Colors:  DefaultPaletteHex(),
	}
	if err := json.Unmarshal(b, &t); err != nil {
		return ThemeFile{}, errors.Wrap(err, "decode theme")
	}
	if t.ID == "" {
		return ThemeFile{}, errors.New("theme id is required")
	}
	if t.ID == DefaultID {
		return ThemeFile{}, errors.Newf("theme id %q is reserved", DefaultID)
	}
	if t.Version == 0 {
		t.Version = 1
	}
	if err := t.Colors.Validate(); err != nil {
		return ThemeFile{}, err
	}
	return t, nil
}

const DefaultID = "default"

func DefaultPaletteHex() PaletteHex {
	return PaletteHex{
		Border:       "#7fb4ca",
		BorderMuted:  "#54546d",
		PopupBorder:  "#e6c384",
		Danger:       "#e82424",
		Success:      "#98bb6c",
		Warning:      "#ffa066",
		TextPrimary:  "#dcd7ba",
		TextMuted:    "#727169",
		SelectionBg:  "#7fb4ca",
		SelectionFg:  "#16161d",
		Title:        "#e6c384",
		HelpText:     "#c8c093",
		StatusText:   "#7aa89f",
		ColumnHeader: "#e6c384",
		Timestamp:    "#938aa9",
		DetailsLabel: "#a3d4d5",
		DetailsValue: "#dcd7ba",
	}
}
