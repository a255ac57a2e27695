package http

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edulive/classroom/internal/app"
	"github.com/edulive/classroom/internal/auth"
	"github.com/edulive/classroom/internal/domain"
)

func requireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := c.MustGet("identity").(domain.Identity)
		if !ok || identity.IsGuest() || !slices.Contains(roles, identity.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "accès non autorisé"})
			return
		}
		c.Next()
	}
}

type adminHandlers struct {
	deps Deps
}

func newAdminHandlers(deps Deps) *adminHandlers {
	return &adminHandlers{deps: deps}
}

func (h *adminHandlers) stats(c *gin.Context) {
	c.JSON(http.StatusOK, app.BuildStats(h.deps.Conns, h.deps.Rooms))
}

type createSessionRequest struct {
	ID           string   `json:"id"`
	Title        string   `json:"title" binding:"required"`
	Status       string   `json:"status"`
	Participants []string `json:"participants"`
	Password     string   `json:"password"`
	GuestPolicy  string   `json:"guest_policy"`
	OpenAccess   bool     `json:"open_access"`
}

func (h *adminHandlers) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "données de session invalides"})
		return
	}
	identity := c.MustGet("identity").(domain.Identity)

	sess := &domain.Session{
		ID:           req.ID,
		Title:        req.Title,
		Status:       domain.SessionStatus(req.Status),
		TeacherID:    identity.UserID,
		Participants: req.Participants,
		GuestPolicy:  domain.GuestPolicy(req.GuestPolicy),
		OpenAccess:   req.OpenAccess,
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.Status == "" {
		sess.Status = domain.StatusWaiting
	}
	if sess.GuestPolicy == "" {
		sess.GuestPolicy = domain.GuestsDenied
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "erreur serveur"})
			return
		}
		sess.PasswordHash = hash
	}

	if err := h.deps.Sessions.PutSession(c.Request.Context(), sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "erreur serveur"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": sess.ID})
}

// kick ejects one participant from a live session. Only the session's
// teacher (or an admin) may do it.
func (h *adminHandlers) kick(c *gin.Context) {
	sessionID := c.Param("id")
	userID := c.Param("userID")
	identity := c.MustGet("identity").(domain.Identity)

	sess, err := h.deps.Sessions.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session non trouvée"})
		return
	}
	if identity.Role != domain.RoleAdmin && sess.TeacherID != identity.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "seul le professeur peut expulser des participants"})
		return
	}

	target, ok := h.deps.Conns.FindByUser(userID)
	if !ok || target.CurrentRoom != sessionID {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant introuvable"})
		return
	}

	h.deps.Reaper.Kick(c.Request.Context(), target.ID, sessionID, "expulsé par le professeur")
	c.JSON(http.StatusOK, gin.H{"message": "participant expulsé"})
}
