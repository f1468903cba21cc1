package dose

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dosetrack/dosetrack/internal/platform/auth"
	"github.com/dosetrack/dosetrack/pkg/pagination"
)

type generateRequest struct {
	Days   int    `json:"days"`
	UserID string `json:"user_id"`
}

type Handler struct {
	svc        *Service
	verifier   *auth.Verifier
	cronSecret string
}

func NewHandler(svc *Service, verifier *auth.Verifier, cronSecret string) *Handler {
	return &Handler{svc: svc, verifier: verifier, cronSecret: cronSecret}
}

// RegisterGenerate mounts the generation endpoint on an unauthenticated
// group. Auth is dual-path (bearer token or cron secret) and handled inside
// the handler, so it cannot sit behind the regular JWT middleware.
func (h *Handler) RegisterGenerate(g *echo.Group) {
	g.POST("/doses/generate", h.Generate)
}

// RegisterRoutes mounts the user-facing read path on the authenticated group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doses", h.ListUpcoming)
}

// Generate handles POST /api/v1/doses/generate.
//
// Callers authenticate with either a user bearer token (generation scoped to
// that user) or the scheduler's shared secret (all users, optionally narrowed
// by user_id in the body). Anything else is a terminal 401 before any store
// access.
func (h *Handler) Generate(c echo.Context) error {
	// A malformed body is recovered by falling back to defaults, never a
	// failed run.
	var req generateRequest
	_ = c.Bind(&req)

	var scope *uuid.UUID

	switch {
	case auth.ValidCronSecret(c.Request().Header.Get(auth.CronSecretHeader), h.cronSecret):
		if req.UserID != "" {
			uid, err := uuid.Parse(req.UserID)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
			}
			scope = &uid
		}

	case auth.BearerToken(c.Request().Header.Get("Authorization")) != "":
		subject, err := h.verifier.Verify(auth.BearerToken(c.Request().Header.Get("Authorization")))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
		}
		uid, err := uuid.Parse(subject)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
		}
		scope = &uid

	default:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
	}

	summary, err := h.svc.Run(c.Request().Context(), scope, req.Days)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	if summary.Message != "" {
		return c.JSON(http.StatusOK, echo.Map{
			"success":   true,
			"message":   summary.Message,
			"generated": 0,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":             true,
		"generated":           summary.Generated,
		"schedules_processed": summary.SchedulesProcessed,
		"days":                summary.Days,
		"duration_ms":         summary.DurationMS,
	})
}

// ListUpcoming handles GET /api/v1/doses for the authenticated user.
func (h *Handler) ListUpcoming(c echo.Context) error {
	uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}

	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			days = n
		}
	}

	pg := pagination.FromContext(c)
	occs, total, err := h.svc.ListUpcoming(c.Request().Context(), uid, days, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(occs, total, pg.Limit, pg.Offset))
}
