package api

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/agri-copilot/internal/imaging"
	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"github.com/bobby-s-dev/agri-copilot/internal/services"
)

var validate = validator.New()

// BreakerReporter exposes a provider client's circuit breaker state.
type BreakerReporter interface {
	Name() string
	BreakerState() string
}

// JobController is implemented by the scheduler.
type JobController interface {
	GetStatus() map[string]interface{}
	ForceRun(name string) error
}

// ToolDefaults apply when a turn request leaves a toggle unset.
type ToolDefaults struct {
	Weather          bool
	PlantDiagnosis   bool
	VarietyReference bool
	Telemetry        bool
}

type Handler struct {
	assistant  *services.Assistant
	aggregator *services.ContextAggregator
	sessions   *services.SessionStore
	categories *services.CategoryService
	location   *services.LocationService
	scheduler  JobController
	breakers   []BreakerReporter
	defaults   ToolDefaults
	logger     *zap.Logger
}

type HandlerDeps struct {
	Assistant  *services.Assistant
	Aggregator *services.ContextAggregator
	Sessions   *services.SessionStore
	Categories *services.CategoryService
	Location   *services.LocationService
	Scheduler  JobController
	Breakers   []BreakerReporter
	Defaults   ToolDefaults
}

func NewHandler(deps HandlerDeps, logger *zap.Logger) *Handler {
	return &Handler{
		assistant:  deps.Assistant,
		aggregator: deps.Aggregator,
		sessions:   deps.Sessions,
		categories: deps.Categories,
		location:   deps.Location,
		scheduler:  deps.Scheduler,
		breakers:   deps.Breakers,
		defaults:   deps.Defaults,
		logger:     logger,
	}
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "healthy",
		"timestamp":  time.Now(),
		"last_fetch": h.aggregator.GetLastFetchTime(),
		"uptime":     time.Since(startTime).String(),
		"sessions":   h.sessions.Len(),
	})
}

// GetMetrics handles GET /api/v1/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	breakers := make(map[string]string, len(h.breakers))
	for _, b := range h.breakers {
		breakers[b.Name()] = b.BreakerState()
	}

	metrics := fiber.Map{
		"aggregator":       h.aggregator.GetStats(),
		"category_cache":   h.categories.GetStats(),
		"circuit_breakers": breakers,
	}
	if h.scheduler != nil {
		metrics["scheduler"] = h.scheduler.GetStatus()
	}

	return c.JSON(fiber.Map{
		"metrics":   metrics,
		"timestamp": time.Now(),
	})
}

// RunJob handles POST /api/v1/jobs/:name/run
func (h *Handler) RunJob(c *fiber.Ctx) error {
	if h.scheduler == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "scheduler not running")
	}
	name := c.Params("name")
	if err := h.scheduler.ForceRun(name); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job": name, "triggered": true})
}

// GetLocation handles GET /api/v1/location
func (h *Handler) GetLocation(c *fiber.Ctx) error {
	return c.JSON(h.location.Locate(c.UserContext()))
}

func categoryResponse(r models.Result[[]models.CategoryNode]) error {
	if r.Outcome == models.OutcomeFailure {
		return fiber.NewError(fiber.StatusBadGateway, r.Describe())
	}
	return nil
}

// GetMainCategories handles GET /api/v1/categories
func (h *Handler) GetMainCategories(c *fiber.Ctx) error {
	r := h.categories.Main(c.UserContext())
	if err := categoryResponse(r); err != nil {
		return err
	}

	list := r.Value
	if r.Outcome == models.OutcomeEmpty {
		list = models.NewCategoryList(nil)
	}
	return c.JSON(fiber.Map{"categories": list, "outcome": r.Outcome.String()})
}

// GetMiddleCategories handles GET /api/v1/categories/:code/middle
func (h *Handler) GetMiddleCategories(c *fiber.Ctx) error {
	code := c.Params("code")
	r := h.categories.Middle(c.UserContext(), code)
	if err := categoryResponse(r); err != nil {
		return err
	}

	list := r.Value
	if r.Outcome == models.OutcomeEmpty {
		list = models.NewCategoryList(nil)
	}
	return c.JSON(fiber.Map{"main_code": code, "categories": list, "outcome": r.Outcome.String()})
}

// CreateSession handles POST /api/v1/sessions
func (h *Handler) CreateSession(c *fiber.Ctx) error {
	session := h.sessions.Create()
	return c.Status(fiber.StatusCreated).JSON(session)
}

// GetSession handles GET /api/v1/sessions/:id
func (h *Handler) GetSession(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(session)
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *Handler) DeleteSession(c *fiber.Ctx) error {
	if err := h.sessions.Delete(c.Params("id")); err != nil {
		return sessionError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func sessionError(err error) error {
	if errors.Is(err, services.ErrSessionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}

type toolsRequest struct {
	Weather          *bool                   `json:"weather"`
	PlantDiagnosis   *bool                   `json:"plant_diagnosis"`
	VarietyReference *bool                   `json:"variety_reference"`
	Telemetry        *bool                   `json:"telemetry"`
	Coordinates      *models.GeoCoordinate   `json:"coordinates" validate:"omitempty"`
	UseGeolocation   *bool                   `json:"use_geolocation"`
	SelectedCategory *models.CategoryNode    `json:"selected_category"`
	TelemetryTarget  *models.TelemetryTarget `json:"telemetry_target" validate:"omitempty"`
}

type turnRequest struct {
	Query    string        `json:"query" validate:"required,max=4000"`
	CropName string        `json:"crop_name" validate:"max=100"`
	Tools    *toolsRequest `json:"tools" validate:"omitempty"`
	Image    []byte        `json:"image"`
}

func pick(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// bindTurn reads either a JSON body or a multipart form with a "payload"
// JSON field and an optional "image" file.
func bindTurn(c *fiber.Ctx) (turnRequest, error) {
	var req turnRequest

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if err := json.Unmarshal([]byte(c.FormValue("payload")), &req); err != nil {
			return req, fiber.NewError(fiber.StatusBadRequest, "invalid payload field: "+err.Error())
		}
		fh, err := c.FormFile("image")
		if err == nil {
			f, err := fh.Open()
			if err != nil {
				return req, fiber.NewError(fiber.StatusBadRequest, "unreadable image upload")
			}
			defer f.Close()
			data, err := io.ReadAll(io.LimitReader(f, imaging.MaxImageBytes+1))
			if err != nil {
				return req, fiber.NewError(fiber.StatusBadRequest, "unreadable image upload")
			}
			req.Image = data
		}
	} else if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}

	req.Query = strings.TrimSpace(req.Query)
	if err := validate.Struct(req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return req, nil
}

func (h *Handler) toTurnInput(c *fiber.Ctx, req turnRequest) (models.TurnInput, error) {
	tools := req.Tools
	if tools == nil {
		tools = &toolsRequest{}
	}

	in := models.TurnInput{
		Tools: models.ToolConfig{
			Weather:          pick(tools.Weather, h.defaults.Weather),
			PlantDiagnosis:   pick(tools.PlantDiagnosis, h.defaults.PlantDiagnosis),
			VarietyReference: pick(tools.VarietyReference, h.defaults.VarietyReference),
			Telemetry:        pick(tools.Telemetry, h.defaults.Telemetry),
			Coordinates:      tools.Coordinates,
			SelectedCategory: tools.SelectedCategory,
			TelemetryTarget:  tools.TelemetryTarget,
		},
		Query:    req.Query,
		CropName: strings.TrimSpace(req.CropName),
	}

	if in.Tools.Weather && in.Tools.Coordinates == nil && pick(tools.UseGeolocation, true) {
		loc := h.location.Locate(c.UserContext())
		in.Tools.Coordinates = &loc.Coordinate
	}

	if len(req.Image) > 0 {
		img, _, err := imaging.NewImage(req.Image)
		if err != nil {
			return in, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		in.Image = img
	}
	return in, nil
}

// CreateTurn handles POST /api/v1/sessions/:id/turns
func (h *Handler) CreateTurn(c *fiber.Ctx) error {
	session, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return sessionError(err)
	}

	req, err := bindTurn(c)
	if err != nil {
		return err
	}
	in, err := h.toTurnInput(c, req)
	if err != nil {
		return err
	}

	h.logger.Info("Processing turn",
		zap.String("session_id", session.ID),
		zap.Bool("image", in.Image != nil))

	updated, turn := h.assistant.ProcessTurn(c.UserContext(), session, in)
	if err := h.sessions.Save(updated); err != nil {
		return sessionError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id": updated.ID,
		"turn":       turn,
		"turns":      len(updated.Turns),
	})
}

var startTime = time.Now()
