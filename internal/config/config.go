package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"formroute/internal/issue"

	"gopkg.in/yaml.v3"
)

// Config holds all formroute configuration. It is loaded once at start-up and
// treated as read-only afterwards.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Google      GoogleConfig      `yaml:"google"`
	Calendar    CalendarConfig    `yaml:"calendar"`
	Mail        MailConfig        `yaml:"mail"`
	Report      ReportConfig      `yaml:"report"`
	Routing     RoutingConfig     `yaml:"routing"`
}

// ServerConfig configures the webhook listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Token, when set, must be sent as "Authorization: Bearer <token>".
	Token string `yaml:"token"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	// DebugFile receives one JSON line per middleware decision. Empty disables it.
	DebugFile string `yaml:"debug_file"`
}

// DiagnosticsConfig selects the append-only diagnostic log sink.
type DiagnosticsConfig struct {
	Sink          string `yaml:"sink"` // sheets, xlsx, jsonl, none
	SpreadsheetID string `yaml:"spreadsheet_id"`
	Sheet         string `yaml:"sheet"`
	Path          string `yaml:"path"` // xlsx and jsonl sinks
}

// GoogleConfig holds credentials shared by the Google API clients.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	// Subject is the user to impersonate with domain-wide delegation.
	Subject string `yaml:"subject"`
	Timeout string `yaml:"timeout"`
}

// CalendarConfig configures the event materializer output.
type CalendarConfig struct {
	Transport  string `yaml:"transport"` // google, dryrun
	CalendarID string `yaml:"calendar_id"`
}

// MailConfig configures notification delivery.
type MailConfig struct {
	Transport     string `yaml:"transport"` // gmail, dryrun
	SenderName    string `yaml:"sender_name"`
	SenderAddress string `yaml:"sender_address"`
}

// ReportConfig configures the notification text.
type ReportConfig struct {
	SubjectPrefix string `yaml:"subject_prefix"`
	Title         string `yaml:"title"`
	ResponsesURL  string `yaml:"responses_url"`
	TimeZone      string `yaml:"time_zone"`
}

// CCConfig is the single cross-notification rule.
type CCConfig struct {
	Department string `yaml:"department"`
	Address    string `yaml:"address"`
}

// RoutingConfig is the issue routing table.
type RoutingConfig struct {
	DefaultDepartment string            `yaml:"default_department"`
	CC                CCConfig          `yaml:"cc"`
	Recipients        map[string]string `yaml:"recipients"`
	Labels            map[string]string `yaml:"labels"`
}

// Default returns the configuration of the library deployment.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Diagnostics: DiagnosticsConfig{
			Sink:  "none",
			Sheet: "DebugLog",
		},
		Google: GoogleConfig{
			CredentialsFile: "credentials.json",
			Timeout:         "30s",
		},
		Calendar: CalendarConfig{Transport: "dryrun", CalendarID: "primary"},
		Mail:     MailConfig{Transport: "dryrun", SenderName: "Library Issue Bot"},
		Report: ReportConfig{
			SubjectPrefix: "Library Issue Report: ",
			Title:         "CAROTHERS LIBRARY ISSUE REPORT",
		},
		Routing: RoutingConfig{
			DefaultDepartment: "deansOffice",
			CC:                CCConfig{Department: "itCampus", Address: "libtechsupport@uri.edu"},
			Recipients: map[string]string{
				"circulation":  "librarycirc-group@uri.edu",
				"itCampus":     "helpdesk@uri.edu",
				"itLibrary":    "libtechsupport@uri.edu",
				"housekeeping": "libadmin-group@uri.edu",
				"facilities":   "libadmin-group@uri.edu",
				"deansOffice":  "libadmin-group@uri.edu",
			},
			Labels: map[string]string{
				"Noise complaint - Circulation 🔊":             "circulation",
				"Lost personal item - Circulation 🔍":          "circulation",
				"Turn on lights - Circulation 💡":              "circulation",
				"Printer problem - IT (Campus) 🖨️":             "itCampus",
				"Library computers - IT (Library) 🖥️":          "itLibrary",
				"Restroom needs restocking - Housekeeping 🧻": "housekeeping",
				"Cleaning needed - Housekeeping 🧹":            "housekeeping",
				"Spill - Housekeeping 🫗":                      "housekeeping",
				"Water fountain issue - Facilities 💧":         "facilities",
				"Repairs needed - Facilities 🔨":               "facilities",
				"Graffiti - Dean's Office ❌":                  "deansOffice",
				"Vandalism - Dean's Office ⚠️":                 "deansOffice",
				"Safety issue - Dean's Office 🦺":              "deansOffice",
			},
		},
	}
}

// Load reads a YAML file over the defaults and applies environment overrides.
// A missing file is not an error: defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			// A file that lists labels or recipients replaces the default
			// table instead of merging into it.
			labels, recipients := cfg.Routing.Labels, cfg.Routing.Recipients
			cfg.Routing.Labels, cfg.Routing.Recipients = nil, nil
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
			if cfg.Routing.Labels == nil {
				cfg.Routing.Labels = labels
			}
			if cfg.Routing.Recipients == nil {
				cfg.Routing.Recipients = recipients
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Server.Addr, "FORMROUTE_ADDR")
	setString(&c.Server.Token, "FORMROUTE_TOKEN")
	setString(&c.Logging.Level, "FORMROUTE_LOG_LEVEL")
	setString(&c.Logging.Format, "FORMROUTE_LOG_FORMAT")
	setString(&c.Logging.DebugFile, "FORMROUTE_DEBUG_FILE")
	setString(&c.Diagnostics.Sink, "FORMROUTE_DIAG_SINK")
	setString(&c.Diagnostics.SpreadsheetID, "FORMROUTE_LOG_SPREADSHEET_ID")
	setString(&c.Diagnostics.Path, "FORMROUTE_DIAG_PATH")
	setString(&c.Google.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.Google.Subject, "FORMROUTE_GOOGLE_SUBJECT")
	setString(&c.Calendar.Transport, "FORMROUTE_CALENDAR_TRANSPORT")
	setString(&c.Calendar.CalendarID, "FORMROUTE_CALENDAR_ID")
	setString(&c.Mail.Transport, "FORMROUTE_MAIL_TRANSPORT")
	setString(&c.Mail.SenderAddress, "FORMROUTE_SENDER_ADDRESS")
	setString(&c.Report.ResponsesURL, "FORMROUTE_RESPONSES_URL")
	setString(&c.Report.TimeZone, "FORMROUTE_TIME_ZONE")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// ForceDryRun switches every outbound transport to its dry-run variant.
func (c *Config) ForceDryRun() {
	c.Calendar.Transport = "dryrun"
	c.Mail.Transport = "dryrun"
}

// Validate checks structural problems that make the configuration unusable.
// Departments without recipients are not errors here; they are reported at
// routing time and listed by RoutingWarnings.
func (c *Config) Validate() error {
	var problems []string
	if c.Routing.DefaultDepartment == "" {
		problems = append(problems, "routing.default_department is required")
	}
	if c.Routing.CC.Department != "" && !strings.Contains(c.Routing.CC.Address, "@") {
		problems = append(problems, fmt.Sprintf("routing.cc.address %q is not an email address", c.Routing.CC.Address))
	}
	switch c.Diagnostics.Sink {
	case "", "none":
	case "sheets":
		if c.Diagnostics.SpreadsheetID == "" {
			problems = append(problems, "diagnostics.spreadsheet_id is required for the sheets sink")
		}
	case "xlsx", "jsonl":
		if c.Diagnostics.Path == "" {
			problems = append(problems, fmt.Sprintf("diagnostics.path is required for the %s sink", c.Diagnostics.Sink))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown diagnostics.sink %q", c.Diagnostics.Sink))
	}
	if t := c.Calendar.Transport; t != "google" && t != "dryrun" {
		problems = append(problems, fmt.Sprintf("unknown calendar.transport %q", t))
	}
	if t := c.Mail.Transport; t != "gmail" && t != "dryrun" {
		problems = append(problems, fmt.Sprintf("unknown mail.transport %q", t))
	}
	if c.Report.TimeZone != "" {
		if _, err := time.LoadLocation(c.Report.TimeZone); err != nil {
			problems = append(problems, fmt.Sprintf("report.time_zone: %v", err))
		}
	}
	if _, err := c.GoogleTimeout(); err != nil {
		problems = append(problems, fmt.Sprintf("google.timeout: %v", err))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RoutingWarnings lists departments that can be routed to but have no recipient.
func (c *Config) RoutingWarnings() []string {
	seen := map[string]bool{c.Routing.DefaultDepartment: true}
	for _, d := range c.Routing.Labels {
		seen[d] = true
	}
	var out []string
	for d := range seen {
		if d == "" {
			continue
		}
		if _, ok := c.Routing.Recipients[d]; !ok {
			out = append(out, fmt.Sprintf("department %q has no recipient", d))
		}
	}
	sort.Strings(out)
	return out
}

// RoutingTable converts the routing section into the router's table.
func (c *Config) RoutingTable() issue.RoutingTable {
	return issue.RoutingTable{
		Labels:            copyMap(c.Routing.Labels),
		Recipients:        copyMap(c.Routing.Recipients),
		DefaultDepartment: c.Routing.DefaultDepartment,
		CC:                issue.CCRule{Department: c.Routing.CC.Department, Address: c.Routing.CC.Address},
	}
}

// Formatter builds the notification formatter.
func (c *Config) Formatter() issue.Formatter {
	f := issue.Formatter{
		SubjectPrefix: c.Report.SubjectPrefix,
		Title:         c.Report.Title,
		ResponsesURL:  c.Report.ResponsesURL,
	}
	if c.Report.TimeZone != "" {
		if loc, err := time.LoadLocation(c.Report.TimeZone); err == nil {
			f.Location = loc
		}
	}
	return f
}

// GoogleTimeout parses google.timeout, defaulting to 30s.
func (c *Config) GoogleTimeout() (time.Duration, error) {
	if c.Google.Timeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(c.Google.Timeout)
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
