package issue

import (
	"strings"
	"time"

	"formroute/internal/form"
)

// Report is the typed view of an issue form response. Fields hold exactly what
// was submitted; display defaults are applied by the Formatter.
type Report struct {
	IssueLabels    []string
	Floor          string
	Location       string
	AdditionalInfo string
	ContactInfo    string
	HasPhoto       bool
	ReceivedAt     time.Time
}

// Rule maps questions whose title contains Contains onto a Report field.
type Rule struct {
	Field    string
	Contains string
	Apply    func(r *Report, answer any)
}

// DefaultRules matches the question titles of the library issue form. Order
// matters: the first rule whose substring appears in a title wins.
var DefaultRules = []Rule{
	{Field: "issue_labels", Contains: "What kind of problem", Apply: func(r *Report, a any) { r.IssueLabels = stringList(a) }},
	{Field: "floor", Contains: "What floor", Apply: func(r *Report, a any) { r.Floor = stringValue(a) }},
	{Field: "location", Contains: "room, internal landmark", Apply: func(r *Report, a any) { r.Location = stringValue(a) }},
	{Field: "photo", Contains: "Upload a picture", Apply: func(r *Report, a any) { r.HasPhoto = nonEmpty(a) }},
	{Field: "additional_info", Contains: "anything else we should know", Apply: func(r *Report, a any) { r.AdditionalInfo = stringValue(a) }},
	{Field: "contact_info", Contains: "name and email", Apply: func(r *Report, a any) { r.ContactInfo = stringValue(a) }},
}

// Extractor builds Reports from item responses using a rule table.
type Extractor struct {
	rules []Rule
}

// NewExtractor returns an Extractor for rules, or DefaultRules when none are given.
func NewExtractor(rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Extractor{rules: rules}
}

// Extract maps every item onto the report. Items that match no rule are ignored.
func (x *Extractor) Extract(items []form.ItemResponse) Report {
	var r Report
	for _, item := range items {
		for _, rule := range x.rules {
			if strings.Contains(item.Title, rule.Contains) {
				rule.Apply(&r, item.Answer)
				break
			}
		}
	}
	if r.IssueLabels == nil {
		r.IssueLabels = []string{}
	}
	return r
}

// Extract runs the default rule table.
func Extract(items []form.ItemResponse) Report {
	return NewExtractor().Extract(items)
}

func stringValue(a any) string {
	if s, ok := a.(string); ok {
		return s
	}
	return ""
}

func stringList(a any) []string {
	out := []string{}
	switch v := a.(type) {
	case string:
		if v != "" {
			out = append(out, v)
		}
	case []string:
		for _, s := range v {
			if s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func nonEmpty(a any) bool {
	switch v := a.(type) {
	case string:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	}
	return false
}
