package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"civic-platform/internal/auth"
	"civic-platform/internal/catalog"
	"civic-platform/internal/complaints"
	"civic-platform/internal/notifications"
	"civic-platform/internal/rbac"
	"civic-platform/internal/reporting"
	"civic-platform/internal/users"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth          *auth.Manager
	Users         *users.Service
	Catalog       *catalog.Service
	Complaints    *complaints.Service
	Notifications *notifications.Service
	Reports       *reporting.Service
}

// writeError maps service sentinels onto HTTP statuses. Unknown errors are
// reported as 500 without leaking internals.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, complaints.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, notifications.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, complaints.ErrPermissionDenied),
		errors.Is(err, users.ErrPermissionDenied),
		errors.Is(err, users.ErrAccountNotActive):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, users.ErrInvalidLogin):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, complaints.ErrInvalidAssignee):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "assignee is not an authority"})
	case errors.Is(err, complaints.ErrInvalidArgument),
		errors.Is(err, users.ErrInvalidArgument),
		errors.Is(err, catalog.ErrInvalidArgument),
		errors.Is(err, reporting.ErrInvalidRequest),
		errors.Is(err, notifications.ErrInvalidNotification):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, complaints.ErrConflict),
		errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, users.ErrUserReferenced),
		errors.Is(err, catalog.ErrNameTaken):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func identity(c *gin.Context) (userID, role string, ok bool) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil || uid == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return "", "", false
	}
	r, _ := auth.Role(c.Request.Context())
	return uid, r, true
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (h Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := h.Users.Register(c.Request.Context(), users.RegisterRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     users.Role(req.Role),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), u.ID, string(u.Role))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh trades a refresh token for a new pair. The role is re-read from
// the user record so role changes take effect at rotation.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}
	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	u, err := h.Users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	if u.Status != users.StatusActive {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account not active"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), u.ID, string(u.Role))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

func (h Handlers) Me(c *gin.Context) {
	uid, _, ok := identity(c)
	if !ok {
		return
	}
	u, err := h.Users.Get(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// --- Users (admin) ---

func (h Handlers) ListUsers(c *gin.Context) {
	list, err := h.Users.List(c.Request.Context(), users.Role(c.Query("role")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h Handlers) SetUserStatus(c *gin.Context) {
	uid, _, ok := identity(c)
	if !ok {
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.Users.SetStatus(c.Request.Context(), uid, c.Param("user_id"), users.Status(req.Status)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) DeleteUser(c *gin.Context) {
	uid, _, ok := identity(c)
	if !ok {
		return
	}
	if err := h.Users.Delete(c.Request.Context(), uid, c.Param("user_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Catalog ---

type categoryRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	DefaultPriority string `json:"default_priority,omitempty"`
}

func (h Handlers) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cat, err := h.Catalog.CreateCategory(c.Request.Context(), req.Name, req.Description, req.DefaultPriority)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h Handlers) ListCategories(c *gin.Context) {
	list, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": list})
}

type zoneRequest struct {
	Name     string `json:"name"`
	District string `json:"district,omitempty"`
}

func (h Handlers) CreateZone(c *gin.Context) {
	var req zoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	z, err := h.Catalog.CreateZone(c.Request.Context(), req.Name, req.District)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, z)
}

func (h Handlers) ListZones(c *gin.Context) {
	list, err := h.Catalog.ListZones(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"zones": list})
}

// --- Complaints ---

func (h Handlers) FileComplaint(c *gin.Context) {
	uid, _, ok := identity(c)
	if !ok {
		return
	}
	var req complaints.FileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.ReporterID = uid
	created, err := h.Complaints.File(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// viewableComplaint loads the complaint and enforces visibility. Private
// complaints present as missing to strangers.
func (h Handlers) viewableComplaint(c *gin.Context) (complaints.Complaint, bool) {
	uid, role, ok := identity(c)
	if !ok {
		return complaints.Complaint{}, false
	}
	got, err := h.Complaints.Get(c.Request.Context(), c.Param("complaint_id"))
	if err != nil {
		writeError(c, err)
		return complaints.Complaint{}, false
	}
	if !complaints.CanView(uid, role, got) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return complaints.Complaint{}, false
	}
	return got, true
}

func (h Handlers) GetComplaint(c *gin.Context) {
	got, ok := h.viewableComplaint(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, got)
}

func (h Handlers) ListComplaints(c *gin.Context) {
	uid, _, ok := identity(c)
	if !ok {
		return
	}
	f := complaints.Filter{
		Status:     complaints.Status(c.Query("status")),
		CategoryID: c.Query("category_id"),
		ZoneID:     c.Query("zone_id"),
		ReporterID: c.Query("reporter_id"),
	}
	list, err := h.Complaints.List(c.Request.Context(), uid, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": list})
}

type changeStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

func (h Handlers) ChangeComplaintStatus(c *gin.Context) {
	uid, _, ok := identity(c)
	if !ok {
		return
	}
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.Complaints.ChangeStatus(c.Request.Context(), c.Param("complaint_id"), uid, complaints.Status(req.Status), req.Comment)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignRequest struct {
	AuthorityID string `json:"authority_id"`
}

func (h Handlers) AssignComplaint(c *gin.Context) {
	uid, _, ok := identity(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AuthorityID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "authority_id required"})
		return
	}
	if err := h.Complaints.AssignAuthority(c.Request.Context(), c.Param("complaint_id"), req.AuthorityID, uid); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) GetActiveAssignment(c *gin.Context) {
	if _, ok := h.viewableComplaint(c); !ok {
		return
	}
	a, found, err := h.Complaints.ActiveAssignment(c.Request.Context(), c.Param("complaint_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no active assignment"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h Handlers) StatusHistory(c *gin.Context) {
	if _, ok := h.viewableComplaint(c); !ok {
		return
	}
	log, err := h.Complaints.StatusHistory(c.Request.Context(), c.Param("complaint_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": log})
}

type evidenceRequest struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

func (h Handlers) AddEvidence(c *gin.Context) {
	uid, _, ok := identity(c)
	if !ok {
		return
	}
	var req evidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	e, err := h.Complaints.AddEvidence(c.Request.Context(), c.Param("complaint_id"), uid, complaints.EvidenceType(req.Type), req.URL, req.Caption)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h Handlers) ListEvidence(c *gin.Context) {
	if _, ok := h.viewableComplaint(c); !ok {
		return
	}
	list, err := h.Complaints.ListEvidence(c.Request.Context(), c.Param("complaint_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evidence": list})
}

type commentRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal,omitempty"`
}

func (h Handlers) AddComment(c *gin.Context) {
	uid, _, ok := identity(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cm, err := h.Complaints.AddComment(c.Request.Context(), c.Param("complaint_id"), uid, req.Body, req.Internal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

func (h Handlers) ListComments(c *gin.Context) {
	_, role, ok := identity(c)
	if !ok {
		return
	}
	if _, ok := h.viewableComplaint(c); !ok {
		return
	}
	list, err := h.Complaints.ListComments(c.Request.Context(), c.Param("complaint_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !rbac.CanManageComplaints(role) {
		visible := make([]complaints.Comment, 0, len(list))
		for _, cm := range list {
			if !cm.Internal {
				visible = append(visible, cm)
			}
		}
		list = visible
	}
	c.JSON(http.StatusOK, gin.H{"comments": list})
}

// --- Notifications ---

func (h Handlers) ListNotifications(c *gin.Context) {
	uid, _, ok := identity(c)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))
	list, err := h.Notifications.ListForUser(c.Request.Context(), uid, unreadOnly)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h Handlers) MarkNotificationRead(c *gin.Context) {
	uid, _, ok := identity(c)
	if !ok {
		return
	}
	if err := h.Notifications.MarkRead(c.Request.Context(), uid, c.Param("notification_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Reporting ---

func parseTimeRange(c *gin.Context) (reporting.TimeRange, bool) {
	from, err1 := time.Parse(time.RFC3339, c.Query("from"))
	to, err2 := time.Parse(time.RFC3339, c.Query("to"))
	if err1 != nil || err2 != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from and to must be RFC3339 timestamps"})
		return reporting.TimeRange{}, false
	}
	return reporting.TimeRange{From: from, To: to}, true
}

func (h Handlers) StatusBreakdown(c *gin.Context) {
	rng, ok := parseTimeRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.StatusBreakdown(c.Request.Context(), reporting.StatusBreakdownRequest{
		Range:      rng,
		CategoryID: c.Query("category_id"),
		ZoneID:     c.Query("zone_id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) ResolutionSummary(c *gin.Context) {
	rng, ok := parseTimeRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.ResolutionSummary(c.Request.Context(), reporting.ResolutionSummaryRequest{
		Range:      rng,
		CategoryID: c.Query("category_id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) AuthorityLoads(c *gin.Context) {
	out, err := h.Reports.AuthorityLoads(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loads": out})
}
