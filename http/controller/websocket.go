package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tnqbao/gau-3d-forge/http/socket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is handled by the CORS middleware; the upgrade
	// itself accepts any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WatchJob upgrades the connection and runs a session until the job
// terminates or the client goes away.
func (ctrl *Controller) WatchJob(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[WebSocket] Upgrade failed for job %s", jobID)
		return
	}

	pollInterval := time.Duration(ctrl.Config.EnvConfig.Worker.PollIntervalMS) * time.Millisecond
	session := socket.NewSession(conn, jobID, ctrl.Hub, ctrl.Repository.JobRepo, ctrl.Infra.Logger, pollInterval)
	session.Run(ctx)
}
