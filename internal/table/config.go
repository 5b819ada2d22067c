package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the selectors, phrases and time budgets used to read a table.
// The defaults match the statistics tables on theanalyst.com.
type Config struct {
	// Selectors
	RowSelector     string `mapstructure:"row_selector" validate:"required"`     // One element per data row
	CellSelector    string `mapstructure:"cell_selector" validate:"required"`    // Cells within a row
	NameSelector    string `mapstructure:"name_selector" validate:"required"`    // Player link within the first cell
	StatusSelector  string `mapstructure:"status_selector" validate:"required"`  // Candidates for the "X of Y" indicator
	NextSelector    string `mapstructure:"next_selector" validate:"required"`    // Candidates for the next-page control
	ConsentSelector string `mapstructure:"consent_selector" validate:"required"` // Candidates for the overlay decline control

	// Matching
	ConsentPhrases []string `mapstructure:"consent_phrases" validate:"min=1,dive,required"`
	NextLabels     []string `mapstructure:"next_labels" validate:"min=1,dive,required"`
	MinCells       int      `mapstructure:"min_cells" validate:"gte=1"`

	// Time budgets
	LoadTimeout    time.Duration `mapstructure:"load_timeout" validate:"gt=0"`
	ConsentTimeout time.Duration `mapstructure:"consent_timeout" validate:"gt=0"`
	RowTimeout     time.Duration `mapstructure:"row_timeout" validate:"gt=0"`
	SettleTimeout  time.Duration `mapstructure:"settle_timeout" validate:"gt=0"`
	PollInterval   time.Duration `mapstructure:"poll_interval" validate:"gt=0"`

	// Limits
	PageInterval time.Duration `mapstructure:"page_interval" validate:"gte=0"` // Minimum gap between page advances
	MaxPages     int           `mapstructure:"max_pages" validate:"gte=0"`     // 0 = all pages
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RowSelector:     "table tbody tr",
		CellSelector:    "td",
		NameSelector:    "a",
		StatusSelector:  "span",
		NextSelector:    "button",
		ConsentSelector: "button",
		ConsentPhrases:  []string{"Deny all"},
		NextLabels:      []string{">"},
		MinCells:        10,
		LoadTimeout:     10 * time.Second,
		ConsentTimeout:  5 * time.Second,
		RowTimeout:      10 * time.Second,
		SettleTimeout:   2 * time.Second,
		PollInterval:    250 * time.Millisecond,
	}
}

var validate = validator.New()

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed '%s%s'", e.Namespace(), e.Tag(), paramSuffix(e.Param())))
	}
	return fmt.Errorf("invalid table config: %s", strings.Join(msgs, "; "))
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}
