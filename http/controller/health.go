package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-3d-forge/utils"
)

func (ctrl *Controller) Health(c *gin.Context) {
	ctx := c.Request.Context()

	redisOK := ctrl.Infra.Redis.Ping(ctx) == nil

	var queueSize int64
	if redisOK {
		queueSize, _ = ctrl.Repository.JobRepo.Size(ctx)
	}

	status := "healthy"
	if !redisOK {
		status = "degraded"
	}

	utils.JSON200(c, gin.H{
		"status":     status,
		"redis":      redisOK,
		"queue_size": queueSize,
	})
}
