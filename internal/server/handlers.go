package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"papersum/internal/auth"
	"papersum/internal/domain"
	"papersum/internal/export"
	"papersum/internal/extract"
	"papersum/internal/jobs"
	"papersum/internal/summarizer"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}

		user, ok := s.auth.Authenticate(token)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}

		c.Set(userContextKey, user)

		return next(c)
	}
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))

	return token, token != ""
}

func currentUser(c echo.Context) domain.User {
	user, _ := c.Get(userContextKey).(domain.User)
	return user
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := s.auth.Register(c.Request().Context(), req.Email, req.Name, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, "Please fill in all fields")
	case errors.Is(err, auth.ErrPasswordTooLong):
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at most 72 bytes")
	case errors.Is(err, auth.ErrUserExists):
		return echo.NewHTTPError(http.StatusConflict, "User with this email already exists")
	case err != nil:
		return fmt.Errorf("register user: %w", err)
	}

	return c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, token, err := s.auth.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		return fmt.Errorf("login user: %w", err)
	}

	return c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

func (s *Server) handleLogout(c echo.Context) error {
	if token, ok := bearerToken(c); ok {
		s.auth.Logout(token)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, s.auth.Users())
}

// Length is accepted as 300 or "300".
type textSummaryRequest struct {
	Text    string      `json:"text"`
	Length  json.Number `json:"length,omitempty"`
	Fluency string      `json:"fluency"`
}

func (s *Server) handleSubmitSummary(c echo.Context) error {
	var (
		input summarizer.Input
		err   error
	)

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		input, err = s.fileInput(c)
	} else {
		input, err = textInput(c)
	}
	if err != nil {
		return err
	}

	// Rejected input does not count against the limit.
	user := currentUser(c)
	if wait, ok := s.limiter.Allow(user.ID, time.Now()); !ok {
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		return echo.NewHTTPError(http.StatusTooManyRequests, "Please wait before submitting another paper")
	}

	job := s.jobs.Submit(user.ID, input)

	return c.JSON(http.StatusAccepted, job)
}

func textInput(c echo.Context) (summarizer.Input, error) {
	var req textSummaryRequest
	if err := c.Bind(&req); err != nil {
		return summarizer.Input{}, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Text) == "" {
		return summarizer.Input{}, echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	prefs, err := domain.ParsePreferences(req.Length.String(), req.Fluency)
	if err != nil {
		return summarizer.Input{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return summarizer.Input{Text: req.Text, Preferences: prefs}, nil
}

func (s *Server) fileInput(c echo.Context) (summarizer.Input, error) {
	prefs, err := domain.ParsePreferences(c.FormValue("length"), c.FormValue("fluency"))
	if err != nil {
		return summarizer.Input{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	header, err := c.FormFile("file")
	if err != nil {
		return summarizer.Input{}, echo.NewHTTPError(http.StatusBadRequest, "Please select a file first")
	}

	f := extract.File{
		Name:     header.Filename,
		MIMEType: header.Header.Get(echo.HeaderContentType),
		Size:     header.Size,
	}
	if mediaType := f.MediaType(); mediaType == "" || mediaType == echo.MIMEOctetStream {
		f.MIMEType = extract.MediaTypeForName(f.Name)
	}

	if err = extract.Validate(f, s.maxUpload); err != nil {
		s.log.InfoContext(c.Request().Context(), "File is rejected",
			"error", err,
			"fileName", f.Name,
			"size", f.Size)

		switch {
		case errors.Is(err, extract.ErrFileTooLarge):
			return summarizer.Input{}, echo.NewHTTPError(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File too large, please upload a file smaller than %dMB", s.maxUpload/(1024*1024)))
		default:
			return summarizer.Input{}, echo.NewHTTPError(http.StatusUnsupportedMediaType,
				"Please upload a PDF or TXT file")
		}
	}

	src, err := header.Open()
	if err != nil {
		return summarizer.Input{}, fmt.Errorf("open upload: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			s.log.WarnContext(c.Request().Context(), "Failed to close upload",
				"error", closeErr,
				"fileName", f.Name)
		}
	}()
	f.Body = src

	res, err := s.extractor.Extract(c.Request().Context(), f)
	s.metrics.ObserveExtraction(f.MediaType(), err)
	if err != nil {
		s.log.WarnContext(c.Request().Context(), "Failed to extract file",
			"error", err,
			"fileName", f.Name,
			"mediaType", f.MediaType())

		return summarizer.Input{}, echo.NewHTTPError(http.StatusUnprocessableEntity, "Failed to process file")
	}

	return summarizer.Input{Text: res.Text, Preferences: prefs}, nil
}

func (s *Server) ownedJob(c echo.Context) (jobs.Snapshot, error) {
	job, ok := s.jobs.Get(c.Param("id"))
	if !ok || job.Owner != currentUser(c).ID {
		return jobs.Snapshot{}, echo.NewHTTPError(http.StatusNotFound, "summary not found")
	}

	return job, nil
}

func (s *Server) handleGetSummary(c echo.Context) error {
	job, err := s.ownedJob(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, job)
}

func (s *Server) handleExportSummary(c echo.Context) error {
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	job, err := s.ownedJob(c)
	if err != nil {
		return err
	}
	if job.Status != jobs.StatusDone {
		return echo.NewHTTPError(http.StatusConflict, "summary is not ready")
	}

	var buf bytes.Buffer
	if err = export.Write(&buf, format, job.Summary); err != nil {
		return fmt.Errorf("export summary: %w", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.FileName(format)))

	return c.Blob(http.StatusOK, export.ContentType(format), buf.Bytes())
}
