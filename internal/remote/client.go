package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"clinic-reservation-backend/config"
	"clinic-reservation-backend/internal/model"
	"clinic-reservation-backend/internal/reservation"
	"clinic-reservation-backend/internal/schedule"
)

var _ reservation.Remote = (*Client)(nil)

// Client talks to clinicd over its JSON API.
type Client struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewClient creates a client for cfg.BaseURL, optionally through cfg.HTTPProxy.
func NewClient(cfg config.ClientConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Warn("Invalid proxy URL, not using a proxy", zap.String("proxy", cfg.HTTPProxy), zap.Error(err))
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		log: log,
	}
}

func (c *Client) FetchWeeklySchedule(ctx context.Context) (schedule.WeeklySchedule, error) {
	var ws schedule.WeeklySchedule
	err := c.do(ctx, "fetch weekly schedule", http.MethodGet, "/api/clinics/weekly_schedule", nil, nil, &ws)
	return ws, err
}

func (c *Client) Reserve(ctx context.Context, studentID, clinicID int64) (reservation.ReserveResponse, error) {
	var resp reserveResponse
	if err := c.do(ctx, "reserve", http.MethodPost, "/api/clinics/reserve", nil,
		placementRequest{UserID: studentID, ClinicID: clinicID}, &resp); err != nil {
		return reservation.ReserveResponse{}, err
	}
	return reservation.ReserveResponse{
		Message:        resp.Message,
		RemainingSpots: resp.RemainingSpots,
		Student:        resp.Student,
	}, nil
}

func (c *Client) Cancel(ctx context.Context, studentID, clinicID int64) (reservation.CancelResponse, error) {
	var resp cancelResponse
	if err := c.do(ctx, "cancel", http.MethodPost, "/api/clinics/cancel", nil,
		placementRequest{UserID: studentID, ClinicID: clinicID}, &resp); err != nil {
		return reservation.CancelResponse{}, err
	}
	return reservation.CancelResponse{Message: resp.Message, RemainingSpots: resp.RemainingSpots}, nil
}

func (c *Client) FetchAttendance(ctx context.Context, clinicID int64, date string) ([]model.Reservation, error) {
	q := url.Values{}
	q.Set("clinic_id", strconv.FormatInt(clinicID, 10))
	q.Set("date", date)
	q.Set("active", "true")

	var out []model.Reservation
	err := c.do(ctx, "fetch attendance", http.MethodGet, "/api/clinic-attendances", q, nil, &out)
	return out, err
}

func (c *Client) UpdateAttendanceStatus(ctx context.Context, reservationID int64, status model.AttendanceStatus) (model.Reservation, error) {
	var out model.Reservation
	path := fmt.Sprintf("/api/clinic-attendances/%d", reservationID)
	err := c.do(ctx, "update attendance", http.MethodPatch, path, nil, attendanceRequest{AttendanceType: status}, &out)
	return out, err
}

func (c *Client) UpdateStudentFlag(ctx context.Context, studentID int64, flag model.StudentFlag, value bool) (model.Student, error) {
	var out model.Student
	path := fmt.Sprintf("/api/students/%d/flags", studentID)
	err := c.do(ctx, "update student flag", http.MethodPatch, path, nil, flagRequest{Flag: flag, Value: value}, &out)
	return out, err
}

func (c *Client) ListStudents(ctx context.Context) ([]model.Student, error) {
	var out []model.Student
	err := c.do(ctx, "list students", http.MethodGet, "/api/students", nil, nil, &out)
	return out, err
}

func (c *Client) FetchWeekReservations(ctx context.Context) ([]model.Reservation, error) {
	q := url.Values{}
	q.Set("week", "current")
	q.Set("active", "true")

	var out []model.Reservation
	err := c.do(ctx, "fetch week reservations", http.MethodGet, "/api/clinic-attendances", q, nil, &out)
	return out, err
}

// ListClinics returns every clinic, open or closed.
func (c *Client) ListClinics(ctx context.Context) ([]model.Clinic, error) {
	var out []model.Clinic
	err := c.do(ctx, "list clinics", http.MethodGet, "/api/clinics", nil, nil, &out)
	return out, err
}

// CreateClinic opens a new clinic.
func (c *Client) CreateClinic(ctx context.Context, clinic NewClinic) (model.Clinic, error) {
	var out model.Clinic
	err := c.do(ctx, "create clinic", http.MethodPost, "/api/clinics", nil, clinic, &out)
	return out, err
}

// UpdateClinic changes the capacity or open flag of a clinic.
func (c *Client) UpdateClinic(ctx context.Context, clinicID int64, update ClinicUpdate) (model.Clinic, error) {
	var out model.Clinic
	path := fmt.Sprintf("/api/clinics/%d", clinicID)
	err := c.do(ctx, "update clinic", http.MethodPatch, path, nil, update, &out)
	return out, err
}

// UpsertStudents adds students or refreshes their profile by username.
func (c *Client) UpsertStudents(ctx context.Context, students []StudentProfile) (int, error) {
	var out upsertStudentsResponse
	err := c.do(ctx, "upsert students", http.MethodPost, "/api/students", nil,
		upsertStudentsRequest{Students: students}, &out)
	return out.Upserted, err
}

// ResetNoShow clears the no-show count of the given students.
func (c *Client) ResetNoShow(ctx context.Context, studentIDs []int64) (int64, error) {
	var out resetNoShowResponse
	err := c.do(ctx, "reset no-show", http.MethodPost, "/api/students/reset_no_show", nil,
		resetNoShowRequest{StudentIDs: studentIDs}, &out)
	return out.Updated, err
}

// ResetWeek asks the server to run the weekly reset now.
func (c *Client) ResetWeek(ctx context.Context, dryRun bool) (ResetSummary, error) {
	var out ResetSummary
	err := c.do(ctx, "reset week", http.MethodPost, "/api/admin/reset_week", nil, resetWeekRequest{DryRun: dryRun}, &out)
	return out, err
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/api/health", nil, nil, nil)
}

// do sends one request. Refusals come back as *reservation.RejectionError;
// anything that leaves the outcome unknown, including 5xx answers, as
// *reservation.TransportError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &reservation.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &reservation.TransportError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.log.Debug("Request completed", zap.String("op", op), zap.String("method", method),
		zap.String("path", path), zap.Int("status", resp.StatusCode))

	switch {
	case resp.StatusCode >= 500:
		return &reservation.TransportError{Op: op, Err: fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))}
	case resp.StatusCode >= 400:
		return rejection(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &reservation.TransportError{Op: op, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}
	return nil
}

func rejection(status int, data []byte) *reservation.RejectionError {
	var body errorResponse
	_ = json.Unmarshal(data, &body)

	reason := reservation.Reason(body.Error)
	if reason == "" {
		switch status {
		case http.StatusNotFound:
			reason = reservation.ReasonNotFound
		case http.StatusTooManyRequests:
			reason = reservation.ReasonRateLimited
		default:
			reason = reservation.ReasonInvalidRequest
		}
	}
	return &reservation.RejectionError{
		Reason:      reason,
		Message:     body.Message,
		NoShowCount: body.NoShowCount,
		StatusCode:  status,
	}
}
