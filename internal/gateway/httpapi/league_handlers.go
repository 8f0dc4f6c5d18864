package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jkaninda/okapi"

	"github.com/jkaninda/ligi/internal/auth"
	"github.com/jkaninda/ligi/internal/identity"
	"github.com/jkaninda/ligi/internal/league"
)

// SuccessResponse acknowledges a write.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// TeamResponse is one team in standings order.
type TeamResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Points  int    `json:"points"`
	LogoURL string `json:"logo_url"`
}

// StudentResponse is one student, with the team name on ranked listings.
type StudentResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Grade    int    `json:"grade"`
	TeamID   int64  `json:"team_id"`
	Points   int    `json:"points"`
	ClassID  int    `json:"class_id"`
	TeamName string `json:"team_name,omitempty"`
}

// StatsResponse is the public standings payload.
type StatsResponse struct {
	Teams       []TeamResponse    `json:"teams"`
	TopStudents []StudentResponse `json:"topStudents"`
	MVP         *StudentResponse  `json:"mvp"`
}

// DashboardResponse is the admin dashboard payload.
type DashboardResponse struct {
	TotalStudents    int64 `json:"totalStudents"`
	TotalTeams       int64 `json:"totalTeams"`
	TotalPoints      int64 `json:"totalPoints"`
	PendingApprovals int64 `json:"pendingApprovals"`
}

func (g *Gateway) handlePublicStats(c *okapi.Context) error {
	ctx := c.Context()

	teams, err := g.store.Teams().ListByPoints(ctx)
	if err != nil {
		return g.serverError(c, "listing teams", err)
	}
	top, err := g.store.Students().RankedByPoints(ctx, 10)
	if err != nil {
		return g.serverError(c, "ranking students", err)
	}

	resp := StatsResponse{
		Teams:       teamResponses(teams),
		TopStudents: studentResponses(top),
	}
	if len(top) > 0 {
		mvp := toStudentResponse(top[0])
		resp.MVP = &mvp
	}
	return c.OK(resp)
}

func (g *Gateway) handlePublicTeams(c *okapi.Context) error {
	teams, err := g.store.Teams().ListByPoints(c.Context())
	if err != nil {
		return g.serverError(c, "listing teams", err)
	}
	return c.OK(teamResponses(teams))
}

func (g *Gateway) handlePublicStudents(c *okapi.Context) error {
	students, err := g.store.Students().RankedByPoints(c.Context(), 0)
	if err != nil {
		return g.serverError(c, "ranking students", err)
	}
	return c.OK(studentResponses(students))
}

// handleClassStudents lists one class. Servants always see their claimed
// class regardless of the URL; a servant without a class claim is refused.
// Admins see whatever class the URL names.
func (g *Gateway) handleClassStudents(c *okapi.Context) error {
	classID, err := strconv.Atoi(c.Param("classId"))
	if err != nil {
		return c.AbortBadRequest("classId must be an integer")
	}

	if p := auth.PrincipalFrom(c); p != nil && p.Role == identity.RoleServant {
		if p.ClassID == nil {
			g.logger.Warn("servant without class claim",
				slog.String("uid", p.UID),
			)
			return c.AbortForbidden("Forbidden")
		}
		classID = *p.ClassID
	}

	students, err := g.store.Students().ListByClass(c.Context(), classID)
	if err != nil {
		return g.serverError(c, "listing class students", err)
	}
	return c.OK(studentResponses(students))
}

// AttendanceRequest is the JSON body for POST /api/servant/attendance.
type AttendanceRequest struct {
	StudentID int64  `json:"student_id"`
	Date      string `json:"date"`
	Type      string `json:"type"`   // "lesson" or "mass".
	Status    int    `json:"status"` // 1 present, 0 absent.
}

func (g *Gateway) handleAttendance(c *okapi.Context) error {
	var req AttendanceRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.StudentID == 0 || req.Date == "" {
		return c.AbortBadRequest("student_id and date are required")
	}
	if req.Type != league.AttendanceLesson && req.Type != league.AttendanceMass {
		return c.AbortBadRequest("type must be \"lesson\" or \"mass\"")
	}

	rec := league.AttendanceRecord{
		StudentID: req.StudentID,
		Date:      req.Date,
		Type:      req.Type,
		Status:    req.Status,
	}
	if err := g.store.Attendance().Record(c.Context(), &rec); err != nil {
		if errors.Is(err, league.ErrNotFound) {
			return c.AbortNotFound("student not found")
		}
		return g.serverError(c, "recording attendance", err)
	}

	if g.config.Metrics != nil {
		g.config.Metrics.AttendanceMarksTotal.WithLabelValues(req.Type).Inc()
	}
	return c.OK(SuccessResponse{Success: true})
}

// PointsRequest is the JSON body for POST /api/servant/points.
type PointsRequest struct {
	StudentID int64  `json:"student_id"`
	Points    int    `json:"points"`
	Reason    string `json:"reason"`
	Date      string `json:"date"`
}

func (g *Gateway) handlePoints(c *okapi.Context) error {
	var req PointsRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.StudentID == 0 {
		return c.AbortBadRequest("student_id is required")
	}
	if req.Points == 0 {
		return c.AbortBadRequest("points must be non-zero")
	}

	// Plain awards are approved; pending review is the exception, not the
	// default.
	entry := league.PointsEntry{
		StudentID: req.StudentID,
		Points:    req.Points,
		Reason:    req.Reason,
		Date:      req.Date,
		Approved:  true,
	}
	if err := g.store.Points().Award(c.Context(), &entry); err != nil {
		if errors.Is(err, league.ErrNotFound) {
			return c.AbortNotFound("student not found")
		}
		return g.serverError(c, "awarding points", err)
	}

	if g.config.Metrics != nil && req.Points > 0 {
		g.config.Metrics.PointsAwardedTotal.Add(float64(req.Points))
	}
	return c.OK(SuccessResponse{Success: true})
}

// FollowUpRequest is the JSON body for POST /api/servant/followup.
type FollowUpRequest struct {
	StudentID int64  `json:"student_id"`
	Date      string `json:"date"`
	Notes     string `json:"notes"`
}

func (g *Gateway) handleFollowUp(c *okapi.Context) error {
	var req FollowUpRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.StudentID == 0 || req.Date == "" {
		return c.AbortBadRequest("student_id and date are required")
	}

	servantUID := ""
	if p := auth.PrincipalFrom(c); p != nil {
		servantUID = p.UID
	}

	f := league.FollowUp{
		StudentID:  req.StudentID,
		ServantUID: servantUID,
		Date:       req.Date,
		Notes:      req.Notes,
	}
	if err := g.store.FollowUps().Create(c.Context(), &f); err != nil {
		if errors.Is(err, league.ErrNotFound) {
			return c.AbortNotFound("student not found")
		}
		return g.serverError(c, "creating follow-up", err)
	}

	if g.config.Metrics != nil {
		g.config.Metrics.FollowUpsCreatedTotal.Inc()
	}
	return c.OK(SuccessResponse{Success: true})
}

func (g *Gateway) handleDashboard(c *okapi.Context) error {
	ctx := c.Context()

	totalStudents, err := g.store.Students().Count(ctx)
	if err != nil {
		return g.serverError(c, "counting students", err)
	}
	totalTeams, err := g.store.Teams().Count(ctx)
	if err != nil {
		return g.serverError(c, "counting teams", err)
	}
	totalPoints, err := g.store.Students().TotalPoints(ctx)
	if err != nil {
		return g.serverError(c, "summing points", err)
	}
	pending, err := g.store.Points().PendingApprovals(ctx)
	if err != nil {
		return g.serverError(c, "counting pending approvals", err)
	}

	return c.OK(DashboardResponse{
		TotalStudents:    totalStudents,
		TotalTeams:       totalTeams,
		TotalPoints:      totalPoints,
		PendingApprovals: pending,
	})
}

// CreateTeamRequest is the JSON body for POST /api/admin/teams.
type CreateTeamRequest struct {
	Name    string `json:"name"`
	LogoURL string `json:"logo_url"`
}

func (g *Gateway) handleCreateTeam(c *okapi.Context) error {
	var req CreateTeamRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Name == "" {
		return c.AbortBadRequest("name is required")
	}

	t := league.Team{Name: req.Name, LogoURL: req.LogoURL}
	if err := g.store.Teams().Create(c.Context(), &t); err != nil {
		return g.serverError(c, "creating team", err)
	}
	return c.JSON(http.StatusCreated, toTeamResponse(t))
}

// CreateStudentRequest is the JSON body for POST /api/admin/students.
type CreateStudentRequest struct {
	Name    string `json:"name"`
	Grade   int    `json:"grade"`
	TeamID  int64  `json:"team_id"`
	ClassID int    `json:"class_id"`
}

func (g *Gateway) handleCreateStudent(c *okapi.Context) error {
	var req CreateStudentRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Name == "" || req.TeamID == 0 || req.ClassID == 0 {
		return c.AbortBadRequest("name, team_id, and class_id are required")
	}

	s := league.Student{
		Name:    req.Name,
		Grade:   req.Grade,
		TeamID:  req.TeamID,
		ClassID: req.ClassID,
	}
	if err := g.store.Students().Create(c.Context(), &s); err != nil {
		return g.serverError(c, "creating student", err)
	}
	return c.JSON(http.StatusCreated, toStudentResponse(s))
}

// --- Helpers ---

func (g *Gateway) serverError(c *okapi.Context, op string, err error) error {
	g.logger.Error(op+" failed",
		slog.String("path", c.Request().URL.Path),
		slog.String("error", err.Error()),
	)
	return c.AbortInternalServerError("internal error")
}

func toTeamResponse(t league.Team) TeamResponse {
	return TeamResponse{ID: t.ID, Name: t.Name, Points: t.Points, LogoURL: t.LogoURL}
}

func teamResponses(teams []league.Team) []TeamResponse {
	out := make([]TeamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeamResponse(t))
	}
	return out
}

func toStudentResponse(s league.Student) StudentResponse {
	return StudentResponse{
		ID:       s.ID,
		Name:     s.Name,
		Grade:    s.Grade,
		TeamID:   s.TeamID,
		Points:   s.Points,
		ClassID:  s.ClassID,
		TeamName: s.TeamName,
	}
}

func studentResponses(students []league.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, toStudentResponse(s))
	}
	return out
}
