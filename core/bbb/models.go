package bbb

import (
	"context"
	"errors"

	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrCourseNotFound = errors.New("course not found")
)

type (
	// MoodleAPI is the subset of the Moodle web service used to build pages.
	MoodleAPI interface {
		// ValidateConnection never fails: any error degrades to false.
		// The site info fetched to check the connection is returned along.
		ValidateConnection(ctx context.Context) (SiteInfo, bool)
		CourseList(ctx context.Context) ([]Course, error)
		// CourseByID returns ErrCourseNotFound when no course matches.
		CourseByID(ctx context.Context, id int) (Course, error)
		// ActivitiesForCourses returns an empty result without calling the web service when ids is empty.
		ActivitiesForCourses(ctx context.Context, ids ...int) ([]Meeting, error)
		CourseContents(ctx context.Context, id int) ([]ContentSection, error)
		// GroupName returns an empty string when the group does not exist.
		GroupName(ctx context.Context, id int) (string, error)
		ActivityURL(courseModuleID int) string
	}

	// Visibility is Moodle's 0|1 visible flag.
	Visibility int

	SiteInfo struct {
		SiteName string `json:"sitename"`
		UserName string `json:"username"`
		FullName string `json:"fullname"`
		Release  string `json:"release"`
	}

	Course struct {
		ID        int        `json:"id"`
		FullName  string     `json:"fullname"`
		ShortName string     `json:"shortname"`
		Visible   Visibility `json:"visible"`
		URL       string     `json:"-"`

		// ActivityCount is only set on the course list.
		ActivityCount int `json:"-"`
	}

	// Meeting is a mod_bigbluebuttonbn instance as returned by the web service.
	Meeting struct {
		ID           int         `json:"id"`
		CourseModule int         `json:"coursemodule"`
		Course       int         `json:"course"`
		Name         string      `json:"name"`
		Intro        null.String `json:"intro"`
		MeetingID    string      `json:"meetingid"`
	}

	// ContentSection is a course section of core_course_get_contents.
	ContentSection struct {
		ID           int         `json:"id"`
		Name         string      `json:"name"`
		Visible      Visibility  `json:"visible"`
		Summary      string      `json:"summary"`
		Section      int         `json:"section"`
		Availability null.String `json:"availability"`
		Modules      []Module    `json:"modules"`
	}

	// Module is a course module of core_course_get_contents.
	Module struct {
		ID           int         `json:"id"`
		Name         string      `json:"name"`
		Instance     int         `json:"instance"`
		ModName      string      `json:"modname"`
		Visible      Visibility  `json:"visible"`
		URL          string      `json:"url"`
		Description  null.String `json:"description"`
		Added        null.Int64  `json:"added"`
		Availability null.String `json:"availability"`
	}

	Section struct {
		ID           int
		Name         string
		Number       int
		Visible      Visibility
		Availability *Availability
		Restrictions []Restriction
		Activities   []Activity
	}

	Activity struct {
		ID             int
		CourseModuleID int
		Name           string
		Intro          string
		Visible        Visibility
		URL            string
		Availability   *Availability
		Restrictions   []Restriction
		Module         Module
	}

	// Page is the render model of a request: either the course list or one course's sections.
	// When Error is set, no display data is present.
	Page struct {
		SiteName string
		CourseID int
		Error    string
		Courses  []Course
		Course   *Course
		Sections []Section
	}
)

func (v Visibility) Hidden() bool {
	return v == 0
}

// IsDetail tells whether the page shows a single course.
func (p Page) IsDetail() bool {
	return p.CourseID > 0
}
