package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-3d-forge/http/controller/dto"
	"github.com/tnqbao/gau-3d-forge/utils"
)

func (ctrl *Controller) EnhancePrompt(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PromptEnhanceRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request payload")
		return
	}

	enhancer := ctrl.Providers.ForName(req.Provider)
	if !enhancer.IsAvailable(ctx) {
		utils.JSON503(c, "Provider "+enhancer.Name()+" is not available")
		return
	}

	enhanced, modelUsed, err := enhancer.Enhance(ctx, req.Prompt, req.Model)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Prompt] Enhancement via %s failed", enhancer.Name())
		utils.JSON503(c, "Prompt enhancement failed")
		return
	}

	utils.JSON200(c, dto.PromptEnhanceResponseDTO{
		OriginalPrompt: req.Prompt,
		EnhancedPrompt: enhanced,
		Provider:       enhancer.Name(),
		ModelUsed:      modelUsed,
	})
}

func (ctrl *Controller) ListProviders(c *gin.Context) {
	ctx := c.Request.Context()

	statuses := make([]dto.ProviderStatusDTO, 0)
	for _, enhancer := range ctrl.Providers.All() {
		statuses = append(statuses, dto.ProviderStatusDTO{
			Name:      enhancer.Name(),
			Available: enhancer.IsAvailable(ctx),
		})
	}

	utils.JSON200(c, dto.ProviderListResponseDTO{Providers: statuses})
}
