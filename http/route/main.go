package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-3d-forge/http/controller"
	middlewares "github.com/tnqbao/gau-3d-forge/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	apiRoutes := r.Group("/api/v1")
	{
		apiRoutes.Use(middles.AuthMiddleware)

		generateRoutes := apiRoutes.Group("/generate")
		{
			generateRoutes.POST("/text-to-3d", ctrl.GenerateTextTo3D)
			generateRoutes.POST("/image-to-3d", ctrl.GenerateImageTo3D)
		}

		jobRoutes := apiRoutes.Group("/jobs")
		{
			jobRoutes.GET("", ctrl.ListJobs)
			jobRoutes.GET("/:id", ctrl.GetJob)
			jobRoutes.DELETE("/:id", ctrl.CancelJob)
		}

		downloadRoutes := apiRoutes.Group("/download")
		{
			// Filenames keep the {job_id}.{ext} form, so the extension is
			// parsed in the controller.
			downloadRoutes.GET("/preview/:file", ctrl.DownloadPreview)
			downloadRoutes.GET("/:file", ctrl.DownloadModel)
		}

		promptRoutes := apiRoutes.Group("/prompts")
		{
			promptRoutes.POST("/enhance", ctrl.EnhancePrompt)
			promptRoutes.GET("/providers", ctrl.ListProviders)
		}

		apiRoutes.GET("/health", ctrl.Health)
	}

	r.GET("/ws/jobs/:id", middles.AuthMiddleware, ctrl.WatchJob)

	return r
}
