package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fahrerexpress/pkg/apperrors"
	"fahrerexpress/pkg/auth"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/ratelimit"
	"fahrerexpress/service"
)

type Handler struct {
	services service.IServiceManager
	guard    *auth.Guard
	limiter  ratelimit.Limiter
	log      logger.ILogger

	trustedProxies []string
}

func NewHandler(services service.IServiceManager, guard *auth.Guard, limiter ratelimit.Limiter, log logger.ILogger) *Handler {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	return &Handler{services: services, guard: guard, limiter: limiter, log: log}
}

// TrustProxies lists the proxies whose X-Forwarded-For header is honoured
// when resolving the client address. By default no proxy is trusted.
func (h *Handler) TrustProxies(proxies []string) {
	h.trustedProxies = proxies
}

func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(h.trustedProxies); err != nil {
		h.log.Error("invalid trusted proxies, trusting none", logger.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), h.observe, h.cors)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/job-requests", h.rateLimit("job-requests"), h.createJob)
	r.GET("/respond-invite", h.rateLimit("respond-invite"), h.respondInvite)
	r.GET("/customer-unsubscribe", h.rateLimit("customer-unsubscribe"), h.unsubscribe)

	admin := r.Group("/", h.requireAdmin)
	{
		admin.POST("/admin-assign-driver", h.assignDriver)
		admin.POST("/admin-mark-job-completed", h.markJobCompleted)
		admin.POST("/admin-mark-job-open", h.markJobOpen)
		admin.POST("/admin-send-invite", h.sendInvite)
		admin.POST("/admin-reset-jobs", h.resetJobs)
		admin.GET("/admin-actions", h.listActions)
	}
	return r
}

func (h *Handler) createJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, apperrors.Validation("invalid request body"))
		return
	}
	job, err := req.toModel()
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	created, err := h.services.Job().CreateJob(c.Request.Context(), job)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "jobId": created.ID})
}

func (h *Handler) assignDriver(c *gin.Context) {
	var body assignDriverRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.abortWithError(c, apperrors.Validation("invalid request body"))
		return
	}
	req, err := body.toService()
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	assignment, err := h.services.Assignment().AssignDriver(c.Request.Context(), adminFrom(c), req)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignmentId": assignment.ID})
}

func (h *Handler) markJobCompleted(c *gin.Context) {
	var req jobIDRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.JobID == "" {
		h.abortWithError(c, apperrors.Validation("jobId is required"))
		return
	}
	job, err := h.services.Job().MarkCompleted(c.Request.Context(), adminFrom(c), req.JobID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

func (h *Handler) markJobOpen(c *gin.Context) {
	var req jobIDRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.JobID == "" {
		h.abortWithError(c, apperrors.Validation("jobId is required"))
		return
	}
	job, err := h.services.Job().MarkOpen(c.Request.Context(), adminFrom(c), req.JobID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

func (h *Handler) sendInvite(c *gin.Context) {
	var req sendInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, apperrors.Validation("invalid request body"))
		return
	}
	invite, err := h.services.Invite().IssueInvite(c.Request.Context(), adminFrom(c), req.JobID, req.DriverID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "inviteId": invite.ID, "expiresAt": invite.TokenExpiresAt})
}

func (h *Handler) resetJobs(c *gin.Context) {
	n, err := h.services.Job().ResetJobsForAdmin(c.Request.Context(), adminFrom(c))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reset": n})
}

func (h *Handler) listActions(c *gin.Context) {
	jobID := c.Query("jobId")
	if jobID == "" {
		h.abortWithError(c, apperrors.Validation("jobId is required"))
		return
	}
	actions, err := h.services.Job().Actions(c.Request.Context(), jobID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "actions": actions})
}

func (h *Handler) unsubscribe(c *gin.Context) {
	res, err := h.services.Unsubscribe().Unsubscribe(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
