package moodlesvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bbbviewer/core"
	"github.com/trezcool/bbbviewer/core/bbb"
)

const (
	endpointPath = "/webservice/rest/server.php"
	maxErrorBody = 4 << 10

	fnSiteInfo          = "core_webservice_get_site_info"
	fnCourses           = "core_course_get_courses"
	fnCoursesByField    = "core_course_get_courses_by_field"
	fnCourseContents    = "core_course_get_contents"
	fnMeetingsByCourses = "mod_bigbluebuttonbn_get_bigbluebuttonbns_by_courses"
	fnGroups            = "core_group_get_groups"
)

var errTooManyRedirects = errors.New("stopped after too many redirects")

// Client calls the Moodle REST web service with a static token.
type Client struct {
	baseURL    string
	token      string
	restFormat string
	httpClient *http.Client
	logger     core.Logger
}

var _ bbb.MoodleAPI = (*Client)(nil)

func NewClient(conf *core.Config, logger core.Logger) *Client {
	maxRedirects := conf.Moodle.MaxRedirects
	return &Client{
		baseURL:    conf.Moodle.URL,
		token:      conf.Moodle.Token,
		restFormat: conf.Moodle.RestFormat,
		logger:     logger,
		httpClient: &http.Client{
			Timeout: conf.Moodle.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
	}
}

type (
	exceptionEnvelope struct {
		Exception string `json:"exception"`
		ErrorCode string `json:"errorcode"`
		Message   string `json:"message"`
	}

	coursesEnvelope struct {
		Courses []bbb.Course `json:"courses"`
	}

	meetingsEnvelope struct {
		Meetings []bbb.Meeting `json:"bigbluebuttonbns"`
	}

	group struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
)

// ValidateConnection checks the token with a site info call and returns the site info it fetched.
func (c *Client) ValidateConnection(ctx context.Context) (bbb.SiteInfo, bool) {
	info, err := c.SiteInfo(ctx)
	if err != nil {
		c.logger.Error(fmt.Sprintf("MoodleAPI validateConnection Error: %v", err), err)
		return bbb.SiteInfo{}, false
	}
	return info, true
}

func (c *Client) SiteInfo(ctx context.Context) (bbb.SiteInfo, error) {
	var info bbb.SiteInfo
	if err := c.call(ctx, fnSiteInfo, nil, &info); err != nil {
		return bbb.SiteInfo{}, err
	}
	return info, nil
}

func (c *Client) CourseList(ctx context.Context) ([]bbb.Course, error) {
	var courses []bbb.Course
	if err := c.call(ctx, fnCourses, nil, &courses); err != nil {
		return nil, err
	}
	for i := range courses {
		courses[i].URL = c.CourseURL(courses[i].ID)
	}
	return courses, nil
}

func (c *Client) CourseByID(ctx context.Context, id int) (bbb.Course, error) {
	params := make(url.Values)
	params.Set("field", "id")
	params.Set("value", strconv.Itoa(id))

	var env coursesEnvelope
	if err := c.call(ctx, fnCoursesByField, params, &env); err != nil {
		return bbb.Course{}, err
	}
	if len(env.Courses) == 0 {
		return bbb.Course{}, errors.Wrapf(bbb.ErrCourseNotFound, "course %d", id)
	}
	course := env.Courses[0]
	course.URL = c.CourseURL(course.ID)
	return course, nil
}

func (c *Client) ActivitiesForCourses(ctx context.Context, ids ...int) ([]bbb.Meeting, error) {
	if len(ids) == 0 {
		return []bbb.Meeting{}, nil
	}
	params := make(url.Values)
	setList(params, "courseids", ids)

	var env meetingsEnvelope
	if err := c.call(ctx, fnMeetingsByCourses, params, &env); err != nil {
		return nil, err
	}
	if env.Meetings == nil {
		env.Meetings = []bbb.Meeting{}
	}
	return env.Meetings, nil
}

func (c *Client) CourseContents(ctx context.Context, id int) ([]bbb.ContentSection, error) {
	params := make(url.Values)
	params.Set("courseid", strconv.Itoa(id))

	var sections []bbb.ContentSection
	if err := c.call(ctx, fnCourseContents, params, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

func (c *Client) GroupName(ctx context.Context, id int) (string, error) {
	params := make(url.Values)
	setList(params, "groupids", []int{id})

	var groups []group
	if err := c.call(ctx, fnGroups, params, &groups); err != nil {
		return "", err
	}
	if len(groups) == 0 {
		return "", nil
	}
	return groups[0].Name, nil
}

func (c *Client) CourseURL(id int) string {
	return fmt.Sprintf("%s/course/view.php?id=%d", c.baseURL, id)
}

func (c *Client) ActivityURL(courseModuleID int) string {
	return fmt.Sprintf("%s/mod/bigbluebuttonbn/view.php?id=%d", c.baseURL, courseModuleID)
}

// call performs one web service call and decodes the response into out.
func (c *Client) call(ctx context.Context, function string, params url.Values, out interface{}) error {
	if params == nil {
		params = make(url.Values)
	}
	c.logger.Debug(fmt.Sprintf("API Request: %s with params %s", function, params.Encode()))

	q := make(url.Values, len(params)+3)
	for k, v := range params {
		q[k] = v
	}
	q.Set("wstoken", c.token)
	q.Set("wsfunction", function)
	q.Set("moodlewsrestformat", c.restFormat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpointPath+"?"+q.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &core.TransportError{Function: function, Err: stripURL(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug(fmt.Sprintf("API Response for %s (%s): HTTP %d: %s", function, time.Since(start), resp.StatusCode, body))
		return &core.TransportError{Function: function, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &core.TransportError{Function: function, Err: stripURL(err)}
	}
	c.logger.Debug(fmt.Sprintf("API Response for %s (%s): %s", function, time.Since(start), body))

	if err := checkException(function, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &core.DecodeError{Function: function, Err: err}
	}
	return nil
}

// stripURL drops the request URL from client errors: it carries the token in its query.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// checkException returns an APIError if body is an object carrying an exception field.
func checkException(function string, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return &core.DecodeError{Function: function, Err: errors.New("invalid JSON")}
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var env exceptionEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return &core.DecodeError{Function: function, Err: err}
	}
	if env.Exception == "" {
		return nil
	}
	return &core.APIError{
		Function:  function,
		Exception: env.Exception,
		ErrorCode: env.ErrorCode,
		Message:   env.Message,
	}
}

// setList encodes values the way Moodle expects arrays: key[0]=v0&key[1]=v1.
func setList(params url.Values, key string, values []int) {
	for i, v := range values {
		params.Set(fmt.Sprintf("%s[%d]", key, i), strconv.Itoa(v))
	}
}
