package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kikokikok/aeterna-sub003/pkg/approval"
	"github.com/kikokikok/aeterna-sub003/pkg/compressor"
	"github.com/kikokikok/aeterna-sub003/pkg/database"
	"github.com/kikokikok/aeterna-sub003/pkg/metaagent"
	"github.com/kikokikok/aeterna-sub003/pkg/models"
	"github.com/kikokikok/aeterna-sub003/pkg/notes"
	"github.com/kikokikok/aeterna-sub003/pkg/policy"
	"github.com/kikokikok/aeterna-sub003/pkg/slack"
)

// registerRoutes wires every domain endpoint onto router, one handler
// function per concern.
func registerRoutes(router *gin.Engine, db *database.Client, rt *Runtime) {
	router.GET("/health", healthHandler(db, rt))

	v1 := router.Group("/v1/tenants/:tenant")
	v1.Use(tenantMiddleware(rt))

	v1.GET("/budget", getBudgetHandler)
	v1.POST("/budget/consume", consumeBudgetHandler)

	v1.POST("/sync", runSyncHandler)
	v1.GET("/sync/conflicts", syncConflictsHandler)

	v1.POST("/compress", compressHandler)

	v1.POST("/approvals", createApprovalHandler(rt))
	v1.POST("/approvals/:id/decide", decideApprovalHandler(rt))

	v1.GET("/notes/search", searchNotesHandler)
	v1.POST("/notes/distill", distillNotesHandler)

	router.POST("/v1/policy/analyze", policyAnalyzeHandler)
	router.POST("/v1/meta-agent/run", metaAgentRunHandler(rt))

	router.GET("/ws", wsHandler(rt))
}

// healthHandler reports database connectivity and configured-tenant
// count.
func healthHandler(db *database.Client, rt *Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		dbHealth, err := db.Health(ctx)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbHealth,
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": dbHealth,
			"configuration": gin.H{
				"tenants": len(rt.Tenants),
			},
		})
	}
}

// tenantRuntimeKey is the gin context key tenantMiddleware stores the
// resolved *TenantRuntime under.
const tenantRuntimeKey = "tenantRuntime"

func tenantMiddleware(rt *Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.Param("tenant")
		tr, ok := rt.Tenants[tenantID]
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown tenant", "tenant": tenantID})
			return
		}
		c.Set(tenantRuntimeKey, tr)
		c.Next()
	}
}

func mustTenant(c *gin.Context) *TenantRuntime {
	return c.MustGet(tenantRuntimeKey).(*TenantRuntime)
}

func getBudgetHandler(c *gin.Context) {
	tr := mustTenant(c)
	c.JSON(http.StatusOK, tr.Tracker.GetMetrics())
}

type consumeBudgetRequest struct {
	Tokens uint64             `json:"tokens" binding:"required"`
	Layer  models.MemoryLayer `json:"layer" binding:"required"`
}

func consumeBudgetHandler(c *gin.Context) {
	tr := mustTenant(c)
	var req consumeBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := tr.Tracker.TryConsume(req.Tokens, req.Layer); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "metrics": tr.Tracker.GetMetrics()})
		return
	}
	c.JSON(http.StatusOK, tr.Tracker.GetMetrics())
}

func runSyncHandler(c *gin.Context) {
	tr := mustTenant(c)
	if err := tr.Bridge.RunCycle(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tr.Bridge.State())
}

func syncConflictsHandler(c *gin.Context) {
	tr := mustTenant(c)
	conflicts, err := tr.Bridge.DetectConflicts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts})
}

type compressRequest struct {
	Layers map[models.MemoryLayer]string `json:"layers" binding:"required"`
	View   compressor.ViewMode           `json:"view"`
}

// estimateTokens is a rough 4-characters-per-token approximation used
// until a real tokenizer collaborator is wired (see DESIGN.md).
func estimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return len(s)/4 + 1
}

func compressHandler(c *gin.Context) {
	tr := mustTenant(c)
	var req compressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.View == "" {
		req.View = compressor.ViewModeUx
	}

	layers := make([]compressor.LayerContent, 0, len(req.Layers))
	for layer, content := range req.Layers {
		layers = append(layers, compressor.LayerContent{
			Layer: layer,
			Entries: []compressor.LayerEntry{{
				EntryID:           "request",
				FullContent:       content,
				HasFullContent:    true,
				FullContentTokens: estimateTokens(content),
			}},
		})
	}

	result := tr.Compressor.Compress(layers, req.View, nil)
	c.JSON(http.StatusOK, result)
}

type createApprovalRequest struct {
	RequestType string             `json:"request_type" binding:"required"`
	RiskLevel   approval.RiskLevel `json:"risk_level"`
	RequestorID uuid.UUID          `json:"requestor_id"`
}

func createApprovalHandler(rt *Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		tr := mustTenant(c)
		var req createApprovalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.RiskLevel == "" {
			req.RiskLevel = approval.RiskMedium
		}

		wf := tr.CreateWorkflow(req.RequestType, req.RiskLevel)
		if err := wf.Handle(approval.Event{Kind: approval.EventSubmit, RequestorID: req.RequestorID}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		wfCtx := wf.Context()
		rt.Notifier.NotifySubmitted(c.Request.Context(), slack.SubmittedInput{
			RequestID:         wfCtx.RequestID.String(),
			RequestType:       wfCtx.RequestType,
			RiskLevel:         wfCtx.RiskLevel,
			RequiredApprovals: wfCtx.RequiredApprovals,
		})

		c.JSON(http.StatusCreated, gin.H{
			"id":    wfCtx.RequestID,
			"state": wf.State(),
		})
	}
}

type decideApprovalRequest struct {
	Decision   string    `json:"decision" binding:"required"` // "approve" or "reject"
	ApproverID uuid.UUID `json:"approver_id"`
	Reason     string    `json:"reason"`
}

func decideApprovalHandler(rt *Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		tr := mustTenant(c)
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approval id"})
			return
		}
		wf, ok := tr.Workflow(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown approval"})
			return
		}

		var req decideApprovalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		event := approval.Event{ApproverID: req.ApproverID, RejectorID: req.ApproverID, Reason: req.Reason}
		switch req.Decision {
		case "approve":
			event.Kind = approval.EventApprove
		case "reject":
			event.Kind = approval.EventReject
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be approve or reject"})
			return
		}

		if err := wf.Handle(event); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": wf.State()})
			return
		}

		wfCtx := wf.Context()
		rt.Notifier.NotifyDecision(c.Request.Context(), slack.DecisionInput{
			RequestID:         wfCtx.RequestID.String(),
			RequestType:       wfCtx.RequestType,
			State:             wf.State(),
			RequiredApprovals: wfCtx.RequiredApprovals,
			CurrentApprovals:  wfCtx.CurrentApprovals,
			Comment:           req.Reason,
			Reason:            req.Reason,
		})

		c.JSON(http.StatusOK, gin.H{"state": wf.State(), "decisions": wf.Decisions()})
	}
}

func searchNotesHandler(c *gin.Context) {
	tr := mustTenant(c)
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	results, err := tr.Retriever.RetrieveRelevant(c.Request.Context(), query, notes.Filter{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

type distillNotesRequest struct {
	Events  []notes.TrajectoryEvent `json:"events" binding:"required"`
	Trigger notes.Trigger           `json:"trigger"`
}

func distillNotesHandler(c *gin.Context) {
	tr := mustTenant(c)
	var req distillNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Trigger == "" {
		req.Trigger = notes.TriggerManualRequest
	}

	for i, ev := range req.Events {
		ev.Input = tr.Masking.Mask(ev.Input)
		ev.Output = tr.Masking.Mask(ev.Output)
		req.Events[i] = ev
	}

	result, err := tr.Distiller.Distill(c.Request.Context(), req.Events, req.Trigger)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type metaAgentRunRequest struct {
	Requirements string `json:"requirements" binding:"required"`
	TestCommand  struct {
		Program string   `json:"program" binding:"required"`
		Args    []string `json:"args"`
		Timeout uint64   `json:"timeout_seconds"`
	} `json:"test_command" binding:"required"`
}

// metaAgentRunHandler drives the shared build/test/improve loop to
// completion for one requirements string, synchronously.
func metaAgentRunHandler(rt *Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req metaAgentRunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := metaagent.TestCommand{
			Program: req.TestCommand.Program,
			Args:    req.TestCommand.Args,
			Timeout: req.TestCommand.Timeout,
		}

		result, err := rt.MetaAgent.Run(c.Request.Context(), req.Requirements, cmd)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"kind":       result.Kind,
			"iterations": result.Iterations,
			"can_commit": result.CanCommit(),
			"quality":    result.QualityGates,
			"escalation": result.EscalationMessage(),
		})
	}
}

func policyAnalyzeHandler(c *gin.Context) {
	var req struct {
		Policies []policy.Policy `json:"policies" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	detector := policy.NewConflictDetector()
	c.JSON(http.StatusOK, detector.Detect(req.Policies))
}

// wsHandler upgrades to a WebSocket connection and hands it to the
// gateway, which owns the connection's lifecycle from then on:
// authenticate, subscribe, broadcast.
func wsHandler(rt *Runtime) gin.HandlerFunc {
	originPatterns := rt.cfg.AllowedWSOrigins

	return func(c *gin.Context) {
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			slog.Warn("websocket accept failed", "error", err)
			return
		}
		rt.Gateway.Handle(c.Request.Context(), conn)
	}
}
