package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrisnap/backend/internal/flow"
	"github.com/pageza/nutrisnap/backend/internal/logger"
	"github.com/pageza/nutrisnap/backend/internal/service"
	"github.com/pageza/nutrisnap/backend/internal/types"
)

// APIKeyHeader lets a caller supply the model credential per request.
const APIKeyHeader = "X-Goog-Api-Key"

// AIHandler exposes the nutrition flows.
type AIHandler struct {
	flows          *flow.Service
	profileService service.IProfileService
	log            *logger.Logger
}

func NewAIHandler(flows *flow.Service, profileService service.IProfileService, log *logger.Logger) *AIHandler {
	return &AIHandler{flows: flows, profileService: profileService, log: log}
}

// RegisterRoutes mounts /ai behind the given middleware (auth first, then
// rate limiting).
func (h *AIHandler) RegisterRoutes(router *gin.RouterGroup, mw ...gin.HandlerFunc) {
	ai := router.Group("/ai")
	ai.Use(mw...)
	{
		ai.POST("/nutrition", h.AnalyzeNutrition)
		ai.POST("/classify", h.ClassifyFoodItem)
		ai.POST("/recipes/photo", h.GenerateRecipeFromPhoto)
		ai.POST("/recipes/personalized", h.GeneratePersonalizedRecipe)
		ai.POST("/meal-plans", h.GenerateMealPlan)
		ai.POST("/chat", h.NutritionChat)
	}
}

func (h *AIHandler) AnalyzeNutrition(c *gin.Context) {
	var req types.PhotoRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, _, ok := h.callContext(c)
	if !ok {
		return
	}

	result, err := h.flows.AnalyzeNutrition(c.Request.Context(), cfg, flow.AnalyzeNutritionInput{PhotoDataURI: req.PhotoDataURI})
	h.respond(c, result, err)
}

func (h *AIHandler) ClassifyFoodItem(c *gin.Context) {
	var req types.PhotoRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, _, ok := h.callContext(c)
	if !ok {
		return
	}

	result, err := h.flows.ClassifyFoodItem(c.Request.Context(), cfg, flow.ClassifyFoodItemInput{PhotoDataURI: req.PhotoDataURI})
	h.respond(c, result, err)
}

func (h *AIHandler) GenerateRecipeFromPhoto(c *gin.Context) {
	var req types.PhotoRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, profile, ok := h.callContext(c)
	if !ok {
		return
	}

	result, err := h.flows.GenerateRecipeFromPhoto(c.Request.Context(), cfg, flow.RecipeFromPhotoInput{
		PhotoDataURI: req.PhotoDataURI,
		Profile:      profile,
	})
	h.respond(c, result, err)
}

func (h *AIHandler) GeneratePersonalizedRecipe(c *gin.Context) {
	var req types.PersonalizedRecipeRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, profile, ok := h.callContext(c)
	if !ok {
		return
	}

	result, err := h.flows.GeneratePersonalizedRecipe(c.Request.Context(), cfg, flow.PersonalizedRecipeInput{
		Ingredients:         req.Ingredients,
		DietaryRestrictions: req.DietaryRestrictions,
		UserPreferences:     req.UserPreferences,
		Profile:             profile,
	})
	h.respond(c, result, err)
}

func (h *AIHandler) GenerateMealPlan(c *gin.Context) {
	var req types.MealPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, profile, ok := h.callContext(c)
	if !ok {
		return
	}

	result, err := h.flows.GenerateMealPlan(c.Request.Context(), cfg, flow.MealPlanInput{
		ShoppingList:               req.ShoppingList,
		NumberOfDays:               req.NumberOfDays,
		IncludeShoppingSuggestions: req.IncludeShoppingSuggestions,
		IncludeBreakfast:           req.IncludeBreakfast,
		IncludeLunch:               req.IncludeLunch,
		IncludeAfternoonSnack:      req.IncludeAfternoonSnack,
		IncludeDinner:              req.IncludeDinner,
		Profile:                    profile,
	})
	h.respond(c, result, err)
}

// callContext resolves the credential and the stored profile of the caller.
// The X-Goog-Api-Key header wins over the stored key. A blank credential is
// left for the flow to reject.
func (h *AIHandler) callContext(c *gin.Context) (flow.Config, *flow.UserProfile, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return flow.Config{}, nil, false
	}
	ctx := c.Request.Context()

	stored, err := h.profileService.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, service.ErrProfileNotFound) {
		h.log.Error("failed to load profile", "user_id", userID.String(), "error", err)
		RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to load profile"))
		return flow.Config{}, nil, false
	}

	cfg := flow.Config{APIKey: strings.TrimSpace(c.GetHeader(APIKeyHeader))}
	if cfg.APIKey == "" && stored != nil && stored.HasAPIKey() {
		key, err := h.profileService.APIKey(ctx, userID)
		if err != nil {
			h.log.Error("failed to open stored API key", "user_id", userID.String(), "error", err)
			RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("failed to read stored API key"))
			return flow.Config{}, nil, false
		}
		cfg.APIKey = key
	}
	return cfg, service.FlowProfile(stored), true
}

func (h *AIHandler) respond(c *gin.Context, result any, err error) {
	if err != nil {
		respondFlowError(c, h.log, err)
		return
	}
	RespondOK(c, result)
}

func respondFlowError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, flow.ErrMissingCredential):
		RespondError(c, http.StatusBadRequest, "missing_credential",
			errors.New("a model API key is required: send "+APIKeyHeader+" or store one in your profile"))
	case errors.Is(err, flow.ErrInvalidInput):
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, flow.ErrModel):
		log.Warn("model call failed", "path", c.FullPath(), "error", err)
		RespondError(c, http.StatusBadGateway, "model_error", err)
	default:
		log.Error("flow failed", "path", c.FullPath(), "error", err)
		RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("internal error"))
	}
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}
