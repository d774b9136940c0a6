// Package config defines the compiler configuration model, loads it from
// YAML or JSON (plus environment and flag overrides) and lints it.
//
// Example (trimmed):
//
//	encoding_priority: [utf-8, cp1252, latin1]
//	header_aliases:
//	  value_date: [Valuta, Value Date]
//	files:
//	  - name: positions
//	    path: extracts/positions.csv
//	    required: [value_date]
//	    map: {value_date: value_date, qty_raw: qty}
//	    target_table: landing_positions
package config

// Config is the top-level object decoded from a compiler config file.
type Config struct {
	// Job labels logs and metrics.
	Job string `koanf:"job"`

	// BaseDir anchors relative paths. Defaults to the config file directory.
	BaseDir string `koanf:"base_dir"`

	EncodingPriority   []string            `koanf:"encoding_priority"`
	DelimiterPriority  []string            `koanf:"delimiter_priority"`
	HeaderAliases      map[string][]string `koanf:"header_aliases"`
	DateFormatPriority []string            `koanf:"date_format_priority"`
	DayFirst           bool                `koanf:"dayfirst_default"`
	DQ                 Thresholds          `koanf:"dq_thresholds"`

	// TruncateBeforeLoad lists tables cleared once at the start of a run.
	TruncateBeforeLoad []string `koanf:"truncate_before_load"`

	FileDefaults FileDefaults `koanf:"file_defaults"`
	Fields       Fields       `koanf:"fields"`
	Files        []FileSpec   `koanf:"files"`

	Store         Store   `koanf:"store"`
	QuarantineDir string  `koanf:"quarantine_dir"`
	Runtime       Runtime `koanf:"runtime"`
	Metrics       Metrics `koanf:"metrics"`
}

// Thresholds are data-quality limits.
type Thresholds struct {
	// MinDateParseRate is the share of calendar rows that must carry a valid
	// date for the file to load.
	MinDateParseRate float64 `koanf:"min_date_parse_rate"`
}

// FileDefaults apply to every file that leaves the setting unset.
type FileDefaults struct {
	Sheet     string `koanf:"sheet"`
	HeaderRow []int  `koanf:"header_row"`
	SkipRows  []int  `koanf:"skiprows"`
	PDFPages  string `koanf:"pdf_pages"`
}

// Fields names the canonical fields that get typed parsing.
type Fields struct {
	Dates     []string   `koanf:"dates"`
	Numeric   []string   `koanf:"numeric"`
	Fallbacks []Fallback `koanf:"fallbacks"`
}

// Fallback fills Target from Source when Target is not populated.
type Fallback struct {
	Target string `koanf:"target"`
	Source string `koanf:"source"`
}

// FileSpec describes one source extract.
type FileSpec struct {
	Name     string `koanf:"name"`
	Path     string `koanf:"path"`
	FileType string `koanf:"file_type"`

	// Encoding and Delimiter accept a single value or a list; they are
	// tried before the global priorities.
	Encoding  []string `koanf:"encoding"`
	Delimiter []string `koanf:"delimiter"`

	// Sheet is a sheet name or a 0-based index.
	Sheet     string `koanf:"sheet"`
	HeaderRow []int  `koanf:"header_row"`
	SkipRows  []int  `koanf:"skiprows"`
	PDFPages  string `koanf:"pdf_pages"`

	Calendar    bool       `koanf:"calendar"`
	Required    []string   `koanf:"required"`
	RequiredAny [][]string `koanf:"required_any"`

	// Map renames canonical fields to target columns. Empty keeps every
	// field under its canonical name.
	Map         map[string]string `koanf:"map"`
	TargetTable string            `koanf:"target_table"`
}

// Store selects the destination backend.
type Store struct {
	Kind string `koanf:"kind"`
	DSN  string `koanf:"dsn"`
}

// Runtime controls concurrency.
type Runtime struct {
	// Workers bounds parallel file preparation. 1 is fully sequential.
	Workers int `koanf:"workers"`
}

// Metrics selects a metrics backend.
type Metrics struct {
	Backend        string `koanf:"backend"` // none, pushgateway, datadog
	PushgatewayURL string `koanf:"pushgateway_url"`
	StatsdAddr     string `koanf:"statsd_addr"`
}

// Effective returns fs with file_defaults applied to unset fields.
func (fs FileSpec) Effective(d FileDefaults) FileSpec {
	if fs.Sheet == "" {
		fs.Sheet = d.Sheet
	}
	if fs.HeaderRow == nil {
		fs.HeaderRow = d.HeaderRow
	}
	if fs.SkipRows == nil {
		fs.SkipRows = d.SkipRows
	}
	if fs.PDFPages == "" {
		fs.PDFPages = d.PDFPages
	}
	return fs
}
