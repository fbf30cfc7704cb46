package bbb

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bbbviewer/core"
)

var (
	errConnection  = errors.New("could not connect to Moodle, check the credentials")
	errUnreachable = errors.New("could not reach Moodle, try again later")
	errBadResponse = errors.New("unexpected response from Moodle")
)

type (
	Options struct {
		// Location is used to display restriction dates; time.Local when nil.
		Location *time.Location
		// HideUnknownRestrictions drops unrecognized conditions instead of showing a generic entry.
		HideUnknownRestrictions bool
	}

	// Manager assembles the Page of a single request. It is not safe for concurrent use
	// and must not be shared between requests.
	Manager struct {
		api    MoodleAPI
		logger core.Logger
		opts   Options

		groups map[int]string
		page   Page
	}
)

func NewManager(api MoodleAPI, logger core.Logger, opts Options) *Manager {
	return &Manager{
		api:    api,
		logger: logger,
		opts:   opts,
		groups: make(map[int]string),
	}
}

// Initialize validates the connection then loads the course list (courseID == 0) or the course detail.
// Failures are logged and recorded on the Page; they are never returned.
func (m *Manager) Initialize(ctx context.Context, courseID int) {
	m.page = Page{CourseID: courseID}

	info, ok := m.api.ValidateConnection(ctx)
	if !ok {
		m.fail(errConnection)
		return
	}
	m.page.SiteName = info.SiteName

	if courseID == 0 {
		courses, err := m.LoadCourseList(ctx)
		if err != nil {
			m.fail(err)
			return
		}
		m.page.Courses = courses
		return
	}

	course, sections, err := m.LoadCourseDetail(ctx, courseID)
	if err != nil {
		m.fail(err)
		return
	}
	m.page.Course = &course
	m.page.Sections = sections
}

func (m *Manager) fail(err error) {
	m.logger.Error(fmt.Sprintf("BBBManager Error: %v", err), err)
	m.page = Page{
		SiteName: m.page.SiteName,
		CourseID: m.page.CourseID,
		Error:    userMessage(err),
	}
}

// userMessage is the text shown for err. Transport and decode details stay in the logs.
func userMessage(err error) string {
	var (
		trErr  *core.TransportError
		decErr *core.DecodeError
		apiErr *core.APIError
	)
	switch {
	case errors.As(err, &trErr):
		return errUnreachable.Error()
	case errors.As(err, &decErr):
		return errBadResponse.Error()
	case errors.As(err, &apiErr):
		return apiErr.Error()
	}
	return errors.Cause(err).Error()
}

// Page returns the render model built by Initialize.
func (m *Manager) Page() Page {
	return m.page
}

// Err returns the recorded error message, if any.
func (m *Manager) Err() string {
	return m.page.Error
}

// LoadCourseList returns the courses holding at least one BBB activity, with their activity count.
// Activities are fetched course by course.
func (m *Manager) LoadCourseList(ctx context.Context) ([]Course, error) {
	courses, err := m.api.CourseList(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading courses")
	}

	withBBB := make([]Course, 0, len(courses))
	for _, course := range courses {
		meetings, err := m.api.ActivitiesForCourses(ctx, course.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "loading activities of course %d", course.ID)
		}
		var count int
		for _, mtg := range meetings {
			if mtg.Course != 0 && mtg.Course == course.ID {
				count++
			}
		}
		if count > 0 {
			course.ActivityCount = count
			withBBB = append(withBBB, course)
		}
	}
	return withBBB, nil
}

// LoadCourseDetail returns the course and its sections holding at least one BBB activity.
func (m *Manager) LoadCourseDetail(ctx context.Context, courseID int) (Course, []Section, error) {
	course, err := m.api.CourseByID(ctx, courseID)
	if err != nil {
		return Course{}, nil, errors.Wrapf(err, "loading course %d", courseID)
	}

	contents, err := m.api.CourseContents(ctx, courseID)
	if err != nil {
		return Course{}, nil, errors.Wrapf(err, "loading contents of course %d", courseID)
	}
	meetings, err := m.api.ActivitiesForCourses(ctx, courseID)
	if err != nil {
		return Course{}, nil, errors.Wrapf(err, "loading activities of course %d", courseID)
	}

	byModule := make(map[int]Meeting, len(meetings))
	for _, mtg := range meetings {
		if mtg.CourseModule != 0 {
			byModule[mtg.CourseModule] = mtg
		}
	}

	sections := make([]Section, 0, len(contents))
	for _, cs := range contents {
		sec := Section{
			ID:      cs.ID,
			Name:    cs.Name,
			Number:  cs.Section,
			Visible: cs.Visible,
		}
		if sec.Name == "" {
			sec.Name = fmt.Sprintf("Section %d", cs.Section)
		}

		for _, mod := range cs.Modules {
			mtg, ok := byModule[mod.ID]
			if !ok {
				continue
			}
			act := Activity{
				ID:             mtg.ID,
				CourseModuleID: mod.ID,
				Name:           mtg.Name,
				Intro:          mtg.Intro.String,
				Visible:        mod.Visible,
				URL:            m.api.ActivityURL(mod.ID),
				Availability:   m.parseAvailability(mod.Availability.String),
				Module:         mod,
			}
			act.Restrictions = m.FormatRestrictions(ctx, act.Availability)
			sec.Activities = append(sec.Activities, act)
		}

		if len(sec.Activities) == 0 {
			continue
		}
		sec.Availability = m.parseAvailability(cs.Availability.String)
		sec.Restrictions = m.FormatRestrictions(ctx, sec.Availability)
		sections = append(sections, sec)
	}

	return course, sections, nil
}

func (m *Manager) parseAvailability(raw string) *Availability {
	avail, err := ParseAvailability(raw)
	if err != nil {
		m.logger.Warn("BBBManager: parsing availability", err)
		return nil
	}
	return avail
}

// groupName resolves a group name once per Manager; lookup failures yield an empty name.
func (m *Manager) groupName(ctx context.Context, id int) string {
	if name, ok := m.groups[id]; ok {
		return name
	}
	name, err := m.api.GroupName(ctx, id)
	if err != nil {
		m.logger.Warn(fmt.Sprintf("BBBManager: loading name of group %d", id), err)
		return ""
	}
	m.groups[id] = name
	return name
}
