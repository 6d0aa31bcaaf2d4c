// Package solver wraps the external timetable solver backend. The solver
// generates and stores schedule candidates; this service only reads,
// approves and patches them.
package solver

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
	"time"

	"go.uber.org/zap"

	"github.com/acadsync/timetable-api/internal/dto"
	"github.com/acadsync/timetable-api/internal/models"
	appErrors "github.com/acadsync/timetable-api/pkg/errors"
)

// Config tunes the backend connection.
type Config struct {
	BaseURL       string
	SessionCookie string
	Timeout       time.Duration
}

// Client talks JSON over HTTP to the solver backend.
type Client struct {
	baseURL       string
	sessionCookie string
	http          *http.Client
	logger        *zap.Logger
}

// New constructs a solver client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		sessionCookie: cfg.SessionCookie,
		http:          &http.Client{Timeout: cfg.Timeout},
		logger:        logger,
	}
}

// ListSolutions fetches the variant summaries for a scope.
func (c *Client) ListSolutions(ctx context.Context, scope models.Scope) ([]models.Variant, error) {
	query := url.Values{}
	query.Set("course", scope.Course)
	query.Set("year", strconv.Itoa(scope.Year))
	query.Set("semester", strconv.Itoa(scope.Semester))

	var payload dto.SolutionListResponse
	if err := c.do(ctx, http.MethodGet, "/solutions?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Solutions, nil
}

// GetSolution fetches the full detail for one variant.
func (c *Client) GetSolution(ctx context.Context, id string) (*models.Variant, error) {
	var variant models.Variant
	if err := c.do(ctx, http.MethodGet, "/solutions/"+url.PathEscape(id), nil, &variant); err != nil {
		return nil, err
	}
	return &variant, nil
}

// Approve requests exclusive approval of a variant. A response without
// success set is treated as a rejection.
func (c *Client) Approve(ctx context.Context, id string) error {
	var payload dto.ApproveResponse
	if err := c.do(ctx, http.MethodPost, "/solutions/approve", dto.ApproveRequest{SolutionID: id}, &payload); err != nil {
		return err
	}
	if !payload.Success {
		return appErrors.ErrApprovalRejected
	}
	return nil
}

// Generate triggers a regeneration run for the scope. The run is opaque;
// fresh variants appear in subsequent listings.
func (c *Client) Generate(ctx context.Context, scope models.Scope) error {
	body := map[string]interface{}{
		"course":   scope.Course,
		"year":     scope.Year,
		"semester": scope.Semester,
	}
	return c.do(ctx, http.MethodPost, "/generate", body, nil)
}

// UpdateFaculty persists a fully updated faculty entity.
func (c *Client) UpdateFaculty(ctx context.Context, entity *models.ScheduleEntity) error {
	return c.do(ctx, http.MethodPut, "/facultyUpdate", entity, nil)
}

// UpdateSection persists a fully updated section entity.
func (c *Client) UpdateSection(ctx context.Context, entity *models.ScheduleEntity) error {
	return c.do(ctx, http.MethodPut, "/sectionUpdate", entity, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode solver request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build solver request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionCookie != "" {
		req.Header.Set("Cookie", c.sessionCookie)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrSolverUnavailable.Code, appErrors.ErrSolverUnavailable.Status, appErrors.ErrSolverUnavailable.Message)
	}
	defer resp.Body.Close() //nolint:errcheck

	c.logger.Debug("solver_request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrSolverUnavailable.Code, appErrors.ErrSolverUnavailable.Status, "decode solver response")
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(snippet))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return appErrors.Clone(appErrors.ErrUnauthorized, "solver backend rejected the session")
	case http.StatusNotFound:
		return appErrors.ErrVariantNotFound
	case http.StatusConflict:
		return appErrors.ErrApprovalRejected
	}
	message := fmt.Sprintf("solver backend returned %d", resp.StatusCode)
	if detail != "" {
		message = fmt.Sprintf("%s: %s", message, detail)
	}
	return appErrors.Clone(appErrors.ErrSolverUnavailable, message)
}
