package issue

import (
	"strings"
	"time"
)

const (
	defaultSubjectPrefix = "Library Issue Report: "
	defaultTitle         = "LIBRARY ISSUE REPORT"
	reportedLayout       = "1/2/2006, 3:04:05 PM"
)

var (
	heavyRule = strings.Repeat("═", 55)
	lightRule = strings.Repeat("─", 55)
)

// Message is a formatted notification.
type Message struct {
	Subject string
	Body    string
}

// Formatter renders notifications as plain-text email. The zero value is
// usable and renders timestamps in time.Local.
type Formatter struct {
	SubjectPrefix string
	Title         string
	ResponsesURL  string
	Location      *time.Location
}

// Subject returns the subject line for a notification's issue list.
func (f Formatter) Subject(issues []string) string {
	prefix := f.SubjectPrefix
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	primary := "General Issue"
	if len(issues) > 0 && issues[0] != "" {
		primary = issues[0]
	}
	clean, _, _ := strings.Cut(primary, " - ")
	if clean == "" {
		clean = primary
	}
	return prefix + clean
}

// Format renders n. It has no side effects and depends only on n and f.
func (f Formatter) Format(n Notification) Message {
	title := f.Title
	if title == "" {
		title = defaultTitle
	}

	var b strings.Builder
	b.WriteString(heavyRule + "\n")
	b.WriteString("        " + title + "\n")
	b.WriteString(heavyRule + "\n\n")

	b.WriteString("REPORTED: " + f.reported(n.ReportedAt) + "\n\n")

	section(&b, "ISSUE DETAILS")
	b.WriteString("Problem Type(s):\n")
	for _, issue := range n.Issues {
		b.WriteString("   - " + issue + "\n")
	}
	b.WriteString("\nFloor: " + orDefault(n.Floor, "Not specified") + "\n")
	b.WriteString("\nLocation/Landmark: " + orDefault(n.Location, "Not specified") + "\n")

	b.WriteString("\n")
	section(&b, "ADDITIONAL INFORMATION")
	photo := "No"
	if n.HasPhoto {
		photo = "Yes (view in form response)"
	}
	b.WriteString("Photo Attached: " + photo + "\n")
	b.WriteString("\nAdditional Notes:\n")
	b.WriteString("   " + orDefault(n.AdditionalInfo, "None provided") + "\n")

	b.WriteString("\n")
	section(&b, "REPORTER CONTACT")
	b.WriteString("Contact Info: " + orDefault(n.ContactInfo, "Anonymous") + "\n")

	b.WriteString("\n" + heavyRule + "\n")
	b.WriteString("This is an automated notification from the Library Issue\n")
	b.WriteString("Reporting form.")
	if f.ResponsesURL != "" {
		b.WriteString(" View all responses in the linked\n")
		b.WriteString("sheet for complete details and uploaded photos.\n")
		b.WriteString("\nView Response Spreadsheet:\n")
		b.WriteString(f.ResponsesURL + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString(heavyRule + "\n")

	return Message{Subject: f.Subject(n.Issues), Body: b.String()}
}

func (f Formatter) reported(t time.Time) string {
	if t.IsZero() {
		return "Not recorded"
	}
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(reportedLayout)
}

func section(b *strings.Builder, name string) {
	b.WriteString(lightRule + "\n")
	b.WriteString(name + "\n")
	b.WriteString(lightRule + "\n\n")
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
