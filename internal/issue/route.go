package issue

import (
	"strings"
	"time"
)

// CCRule copies every notification for Department to Address.
type CCRule struct {
	Department string
	Address    string
}

// RoutingTable is static routing configuration. It is never mutated after
// construction of a Router.
type RoutingTable struct {
	Labels            map[string]string // issue label -> department
	Recipients        map[string]string // department -> email address
	DefaultDepartment string
	CC                CCRule
}

// Department returns the department for label, falling back to the default.
func (t RoutingTable) Department(label string) string {
	if d, ok := t.Labels[label]; ok {
		return d
	}
	return t.DefaultDepartment
}

// Bucket groups the labels of one submission that go to one department.
type Bucket struct {
	Department string
	Issues     []string
}

// Notification is one email worth of routed report.
type Notification struct {
	Department     string
	Recipient      string
	CC             string
	Issues         []string
	Floor          string
	Location       string
	AdditionalInfo string
	ContactInfo    string
	HasPhoto       bool
	ReportedAt     time.Time
}

// Unroutable is a bucket that has no usable recipient.
type Unroutable struct {
	Bucket    Bucket
	Recipient string // the configured value, empty when none
	Reason    string
}

// Routing is the outcome of routing one report.
type Routing struct {
	Buckets       []Bucket
	Notifications []Notification
	Unroutable    []Unroutable

	// NoSelection is set when the report had no issue labels at all. No
	// notification is produced in that case.
	NoSelection bool
}

// Departments lists bucket departments in routing order.
func (r Routing) Departments() []string {
	out := make([]string, 0, len(r.Buckets))
	for _, b := range r.Buckets {
		out = append(out, b.Department)
	}
	return out
}

// Router classifies issue labels into department notifications.
type Router struct {
	table RoutingTable
}

func NewRouter(table RoutingTable) *Router {
	return &Router{table: table}
}

// Table returns the routing table the router was built with.
func (r *Router) Table() RoutingTable { return r.table }

// Route groups the report's labels by department and resolves a recipient for
// each group. Groups without a usable recipient are reported in
// Routing.Unroutable and do not stop the others.
func (r *Router) Route(report Report) Routing {
	var out Routing
	if len(report.IssueLabels) == 0 {
		out.NoSelection = true
		return out
	}

	out.Buckets = Group(report.IssueLabels, r.table)
	for _, b := range out.Buckets {
		recipient := r.table.Recipients[b.Department]
		switch {
		case recipient == "":
			out.Unroutable = append(out.Unroutable, Unroutable{Bucket: b, Reason: "no email configured for department"})
			continue
		case !strings.Contains(recipient, "@"):
			out.Unroutable = append(out.Unroutable, Unroutable{Bucket: b, Recipient: recipient, Reason: "invalid recipient"})
			continue
		}

		n := Notification{
			Department:     b.Department,
			Recipient:      recipient,
			Issues:         b.Issues,
			Floor:          report.Floor,
			Location:       report.Location,
			AdditionalInfo: report.AdditionalInfo,
			ContactInfo:    report.ContactInfo,
			HasPhoto:       report.HasPhoto,
			ReportedAt:     report.ReceivedAt,
		}
		if r.table.CC.Department != "" && b.Department == r.table.CC.Department {
			n.CC = r.table.CC.Address
		}
		out.Notifications = append(out.Notifications, n)
	}
	return out
}

// Group buckets labels by department, keeping first-seen department order and
// input order inside each bucket.
func Group(labels []string, table RoutingTable) []Bucket {
	var buckets []Bucket
	index := make(map[string]int)
	for _, label := range labels {
		dept := table.Department(label)
		i, ok := index[dept]
		if !ok {
			i = len(buckets)
			index[dept] = i
			buckets = append(buckets, Bucket{Department: dept})
		}
		buckets[i].Issues = append(buckets[i].Issues, label)
	}
	return buckets
}
