package config

// Defaults for keys a config file may omit.
var (
	DefaultEncodings   = []string{"utf-8", "cp1252", "latin1"}
	DefaultDelimiters  = []string{",", ";", "|", "\t"}
	DefaultDateFormats = []string{"%Y-%m-%d", "%d.%m.%Y", "%d/%m/%Y", "%m/%d/%Y", "%Y%m%d"}
	DefaultDateFields  = []string{"value_date", "evaluation_date", "trade_date", "settle_date", "event_date"}
	DefaultNumeric     = []string{"qty_raw", "price_raw", "value_end", "inflow", "outflow", "amount_raw"}
)

const (
	DefaultJob              = "srccompiler"
	DefaultMinDateParseRate = 0.9
	DefaultStoreKind        = "sqlite"
	DefaultStoreDSN         = "srccompiler.db"
	DefaultQuarantineDir    = "quarantine"
)

// defaults is the lowest-precedence layer, keyed by koanf path.
func defaults() map[string]any {
	return map[string]any{
		"job":                               DefaultJob,
		"encoding_priority":                 DefaultEncodings,
		"delimiter_priority":                DefaultDelimiters,
		"date_format_priority":              DefaultDateFormats,
		"dayfirst_default":                  true,
		"dq_thresholds.min_date_parse_rate": DefaultMinDateParseRate,
		"file_defaults.sheet":               "0",
		"file_defaults.header_row":          []int{0},
		"file_defaults.skiprows":            []int{},
		"file_defaults.pdf_pages":           "1",
		"fields.dates":                      DefaultDateFields,
		"fields.numeric":                    DefaultNumeric,
		"fields.fallbacks":                  []map[string]any{{"target": "value_date", "source": "evaluation_date"}},
		"store.kind":                        DefaultStoreKind,
		"store.dsn":                         DefaultStoreDSN,
		"quarantine_dir":                    DefaultQuarantineDir,
		"runtime.workers":                   1,
		"metrics.backend":                   "none",
	}
}
