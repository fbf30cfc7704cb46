package bbb

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Kind is the closed set of availability condition types we know how to display.
type Kind int

const (
	KindUnknown Kind = iota
	KindDate
	KindGroup
	KindProfile
	KindCompletion
	KindGrade
)

const dateLayout = "02/01/2006 15:04"

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindDate:       "date",
	KindGroup:      "group",
	KindProfile:    "profile",
	KindCompletion: "completion",
	KindGrade:      "grade",
}

// Restriction is the display-ready rendering of one availability condition.
type Restriction struct {
	Kind  Kind
	Icon  string
	Class string
	Text  string
}

func (k Kind) String() string {
	return kindNames[k]
}

// Label is the caption shown before a restriction text.
func (k Kind) Label() string {
	switch k {
	case KindDate:
		return "Date"
	case KindGroup:
		return "Required group"
	case KindProfile:
		return "Profile"
	case KindCompletion:
		return "Completion"
	case KindGrade:
		return "Grade"
	default:
		return "Other"
	}
}

func kindOf(typ string) Kind {
	for k, name := range kindNames {
		if k != KindUnknown && name == typ {
			return k
		}
	}
	return KindUnknown
}

// kind resolves the condition's Kind; a known type missing its required fields is unknown.
func (c Condition) kind() Kind {
	k := kindOf(c.Type)
	switch k {
	case KindDate:
		if !c.Time.Valid {
			return KindUnknown
		}
	case KindGroup:
		if !c.ID.Valid {
			return KindUnknown
		}
	case KindProfile:
		if !c.StandardField.Valid && !c.CustomField.Valid {
			return KindUnknown
		}
	case KindCompletion:
		if !c.CourseModule.Valid {
			return KindUnknown
		}
	case KindGrade:
		if !c.Min.Valid {
			return KindUnknown
		}
	}
	return k
}

// FormatRestrictions renders each condition of a, in order.
// Unknown conditions yield a generic entry unless Options.HideUnknownRestrictions is set.
func (m *Manager) FormatRestrictions(ctx context.Context, a *Availability) []Restriction {
	if !HasRestrictions(a) {
		return nil
	}

	restrictions := make([]Restriction, 0, len(a.Conditions))
	for _, c := range a.Conditions {
		if r, ok := m.formatRestriction(ctx, c); ok {
			restrictions = append(restrictions, r)
		}
	}
	return restrictions
}

func (m *Manager) formatRestriction(ctx context.Context, c Condition) (Restriction, bool) {
	switch c.kind() {
	case KindDate:
		return m.formatDate(c), true
	case KindGroup:
		return m.formatGroup(ctx, c), true
	case KindProfile:
		return formatProfile(c), true
	case KindCompletion:
		return formatCompletion(c), true
	case KindGrade:
		return formatGrade(c), true
	default:
		if m.opts.HideUnknownRestrictions {
			return Restriction{}, false
		}
		return Restriction{
			Kind:  KindUnknown,
			Icon:  "bi-question-circle",
			Class: "text-secondary",
			Text:  "Unrecognized restriction: " + c.String(),
		}, true
	}
}

func (m *Manager) formatDate(c Condition) Restriction {
	var prefix string
	switch c.Direction.String {
	case ">=", "":
		prefix = "Available from: "
	case "<=", "<":
		prefix = "Available until: "
	default:
		prefix = "Available at: "
	}
	return Restriction{
		Kind:  KindDate,
		Icon:  "bi-calendar-event",
		Class: "text-primary",
		Text:  prefix + m.formatTime(c.Time.Int64),
	}
}

func (m *Manager) formatTime(ts int64) string {
	loc := m.opts.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(ts, 0).In(loc).Format(dateLayout)
}

func (m *Manager) formatGroup(ctx context.Context, c Condition) Restriction {
	name := m.groupName(ctx, c.ID.Int)
	if name == "" {
		name = "Group #" + strconv.Itoa(c.ID.Int)
	}
	return Restriction{
		Kind:  KindGroup,
		Icon:  "bi-people-fill",
		Class: "text-success",
		Text:  name,
	}
}

func formatProfile(c Condition) Restriction {
	field := c.StandardField.String
	if !c.StandardField.Valid {
		field = c.CustomField.String
	}
	return Restriction{
		Kind:  KindProfile,
		Icon:  "bi-person-badge",
		Class: "text-info",
		Text:  fmt.Sprintf("Profile field '%s': %s", field, c.Value.String),
	}
}

func formatCompletion(c Condition) Restriction {
	status := "completed"
	if c.Expected.Valid && c.Expected.Int == 0 {
		status = "not completed"
	}
	return Restriction{
		Kind:  KindCompletion,
		Icon:  "bi-check-circle",
		Class: "text-warning",
		Text:  fmt.Sprintf("Requires activity '%d' %s", c.CourseModule.Int, status),
	}
}

func formatGrade(c Condition) Restriction {
	return Restriction{
		Kind:  KindGrade,
		Icon:  "bi-award",
		Class: "text-danger",
		Text:  "Minimum grade: " + strconv.FormatFloat(c.Min.Float64, 'f', -1, 64) + "%",
	}
}
