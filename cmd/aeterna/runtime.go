package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kikokikok/aeterna-sub003/pkg/approval"
	"github.com/kikokikok/aeterna-sub003/pkg/budget"
	"github.com/kikokikok/aeterna-sub003/pkg/cachedecay"
	"github.com/kikokikok/aeterna-sub003/pkg/collaborators/knowledge"
	"github.com/kikokikok/aeterna-sub003/pkg/collaborators/llm"
	"github.com/kikokikok/aeterna-sub003/pkg/collaborators/vector"
	"github.com/kikokikok/aeterna-sub003/pkg/compressor"
	"github.com/kikokikok/aeterna-sub003/pkg/config"
	"github.com/kikokikok/aeterna-sub003/pkg/database"
	"github.com/kikokikok/aeterna-sub003/pkg/graph"
	"github.com/kikokikok/aeterna-sub003/pkg/masking"
	"github.com/kikokikok/aeterna-sub003/pkg/metaagent"
	"github.com/kikokikok/aeterna-sub003/pkg/models"
	"github.com/kikokikok/aeterna-sub003/pkg/notes"
	"github.com/kikokikok/aeterna-sub003/pkg/policy"
	"github.com/kikokikok/aeterna-sub003/pkg/slack"
	"github.com/kikokikok/aeterna-sub003/pkg/sync"
	"github.com/kikokikok/aeterna-sub003/pkg/wsgateway"
)

// TenantRuntime bundles every per-tenant component instance, built
// once from the tenant's resolved config at startup. Mirrors the
// teacher's per-chain service construction in cmd/tarsy/main.go,
// generalized from one set of shared services to one set per tenant.
type TenantRuntime struct {
	ID         string
	Tracker    *budget.Tracker
	Compressor *compressor.Compressor
	Bridge     *sync.Bridge
	Notes      *notes.Manager
	Retriever  *notes.Retriever
	Distiller  *notes.Distiller
	Masking    *masking.MaskingService

	workflowsMu sync.RWMutex
	workflows   map[uuid.UUID]*approval.Workflow
	approvalCfg *config.ApprovalConfig
}

// CreateWorkflow starts a new approval workflow for this tenant using
// its configured mode/required-approvals/timeout.
func (t *TenantRuntime) CreateWorkflow(requestType string, risk approval.RiskLevel) *approval.Workflow {
	id := uuid.New()
	wf := approval.New(approval.Context{
		RequestID:          id,
		RequestType:        requestType,
		RequiredApprovals:  t.approvalCfg.RequiredApprovals,
		ApprovalMode:       approval.Mode(t.approvalCfg.Mode),
		TimeoutHours:       t.approvalCfg.TimeoutHours,
		AutoApproveLowRisk: t.approvalCfg.AutoApproveLowRisk,
		RiskLevel:          risk,
	})

	t.workflowsMu.Lock()
	t.workflows[id] = wf
	t.workflowsMu.Unlock()
	return wf
}

// Workflow retrieves a previously created workflow by ID.
func (t *TenantRuntime) Workflow(id uuid.UUID) (*approval.Workflow, bool) {
	t.workflowsMu.RLock()
	defer t.workflowsMu.RUnlock()
	wf, ok := t.workflows[id]
	return wf, ok
}

// Runtime is every process-wide (cross-tenant) collaborator and store,
// plus the per-tenant runtimes built from them.
type Runtime struct {
	cfg *config.Config
	db  *database.Client

	Graph          *graph.Store
	MemoryStore    *sync.MemoryStorage
	SyncPersister  *sync.Storage
	PolicyDetector *policy.ConflictDetector
	Gateway        *wsgateway.Gateway
	KnowledgeCache *cachedecay.Cache[string, *models.KnowledgeEntry]
	Knowledge      *knowledge.GitRepository

	// MetaAgent is shared across tenants: config.MetaAgentConfig lives
	// only in config.Defaults, not per-tenant TenantConfig.
	MetaAgent *metaagent.Loop

	// Notifier pages reviewers on approval workflow events. Shared
	// across tenants like MetaAgent: config.SlackConfig is process-wide,
	// not per-tenant. Nil (and nil-safe) when Slack isn't configured.
	Notifier *slack.Service

	Tenants map[string]*TenantRuntime
}

// NewRuntime wires every process-wide collaborator and store from cfg,
// then builds one TenantRuntime per configured tenant.
func NewRuntime(ctx context.Context, cfg *config.Config, db *database.Client) (*Runtime, error) {
	collab := cfg.Collaborators

	completer := llm.NewHTTPCompleter(llm.Config{
		BaseURL:     collab.LLM.BaseURL,
		Model:       collab.LLM.Model,
		Timeout:     resolveTimeout(collab.LLM.TimeoutSeconds, 60*time.Second),
		Temperature: 0.2,
	})
	embedder := vector.NewHTTPEmbedder(vector.Config{
		BaseURL: collab.Vector.BaseURL,
		Model:   collab.Vector.Model,
		Timeout: resolveTimeout(collab.Vector.TimeoutSeconds, 30*time.Second),
	})
	knowledgeRepo := knowledge.NewGitRepository(collab.KnowledgeRepoRoot)
	notifier := buildSlackNotifier(cfg.Slack, cfg.DashboardURL)

	rt := &Runtime{
		cfg:            cfg,
		db:             db,
		Graph:          graph.New(db),
		MemoryStore:    sync.NewMemoryStorage(db),
		SyncPersister:  sync.NewStorage(db),
		PolicyDetector: policy.NewConflictDetector(),
		Gateway:        wsgateway.NewGateway(wsgateway.NewStaticTokenValidator(nil), cfg.WSGateway.ResolveWriteTimeout()),
		KnowledgeCache: cachedecay.New[string, *models.KnowledgeEntry](500, 10*time.Minute),
		Knowledge:      knowledgeRepo,
		MetaAgent:      buildMetaAgentLoop(completer, cfg.Defaults.MetaAgent),
		Notifier:       notifier,
		Tenants:        make(map[string]*TenantRuntime),
	}

	for tenantID, tc := range cfg.TenantRegistry.GetAll() {
		tr, err := rt.buildTenant(ctx, tenantID, tc, completer, embedder, knowledgeRepo)
		if err != nil {
			return nil, fmt.Errorf("build tenant %q runtime: %w", tenantID, err)
		}
		rt.Tenants[tenantID] = tr
	}

	return rt, nil
}

func (rt *Runtime) buildTenant(
	ctx context.Context,
	tenantID string,
	tc *config.TenantConfig,
	completer *llm.HTTPCompleter,
	embedder *vector.HTTPEmbedder,
	knowledgeRepo *knowledge.GitRepository,
) (*TenantRuntime, error) {
	defaults := rt.cfg.Defaults

	budgetCfg := tc.Budget
	if budgetCfg == nil {
		budgetCfg = defaults.Budget
	}
	trackerConfig := budget.DefaultConfig()
	if budgetCfg != nil {
		trackerConfig.Budget = budgetCfg.ToBudget(tenantID)
		trackerConfig.ExhaustedAction = budgetCfg.ExhaustedAction
	}

	compressorCfg := tc.Compressor
	if compressorCfg == nil {
		compressorCfg = defaults.Compressor
	}
	compConfig := compressor.DefaultConfig()
	if compressorCfg != nil {
		compConfig.BaseTokenBudget = compressorCfg.BaseTokenBudget
		compConfig.EnableInheritance = compressorCfg.EnableInheritance
		if compressorCfg.InheritanceCompressionRatio > 0 {
			compConfig.InheritanceCompressionRatio = compressorCfg.InheritanceCompressionRatio
		}
		if compressorCfg.MinTokensPerLayer > 0 {
			compConfig.MinTokensPerLayer = compressorCfg.MinTokensPerLayer
		}
	}

	approvalCfg := tc.Approval
	if approvalCfg == nil {
		approvalCfg = defaults.Approval
	}

	bridge, err := sync.New(ctx, tenantID, knowledgeRepo, rt.MemoryStore, rt.SyncPersister, sync.Config{
		StalenessThreshold: defaults.Sync.ResolveStalenessThreshold(),
	})
	if err != nil {
		return nil, fmt.Errorf("construct sync bridge: %w", err)
	}

	noteManager := notes.NewManager(notes.LifecycleConfig{
		AutoProposeUsefulnessThreshold: defaults.Notes.AutoProposeUsefulnessThreshold,
		AutoProposeRetrievalThreshold:  defaults.Notes.AutoProposeRetrievalThreshold,
		DeprecationRetrievalThreshold:  defaults.Notes.DeprecationRetrievalThreshold,
		DeprecationUsefulnessRatio:     defaults.Notes.DeprecationUsefulnessRatio,
	})
	index := notes.NewIndex(notes.RetrievalConfig{
		RecencyWeight:      defaults.Notes.RecencyWeight,
		QualityWeight:      defaults.Notes.QualityWeight,
		SimilarityWeight:   defaults.Notes.SimilarityWeight,
		RecencyHalfLife:    time.Duration(defaults.Notes.RecencyHalfLifeDays) * 24 * time.Hour,
		MaxResults:         defaults.Notes.MaxResults,
		RelevanceThreshold: defaults.Notes.RelevanceThreshold,
	})
	retriever := notes.NewRetriever(index, embedder)

	distillerCfg := notes.DefaultDistillerConfig()
	if nc := defaults.Notes; nc != nil {
		distillerCfg = notes.DistillerConfig{
			MinEventsForDistillation: nc.MinEventsForDistillation,
			MinSuccessRatio:          nc.MinSuccessRatio,
			ExtractCodeSnippets:      nc.ExtractCodeSnippets,
			MaxTags:                  nc.MaxTags,
		}
	}
	distiller := notes.NewDistiller(distillerCfg, completer)
	maskingSvc := masking.NewMaskingService(defaults.Masking)

	return &TenantRuntime{
		ID:          tenantID,
		Tracker:     budget.New(trackerConfig),
		Compressor:  compressor.New(compConfig),
		Bridge:      bridge,
		Notes:       noteManager,
		Retriever:   retriever,
		Distiller:   distiller,
		Masking:     maskingSvc,
		workflows:   make(map[uuid.UUID]*approval.Workflow),
		approvalCfg: approvalCfg,
	}, nil
}

// buildMetaAgentLoop wires the shared build/test/improve loop from
// config.Defaults.MetaAgent, since MetaAgentConfig is not per-tenant
// overridable.
func buildMetaAgentLoop(completer *llm.HTTPCompleter, cfg *config.MetaAgentConfig) *metaagent.Loop {
	if cfg == nil {
		cfg = config.DefaultMetaAgentConfig()
	}

	build := metaagent.NewBuildPhase(completer, metaagent.DefaultBuildPhaseConfig())
	test := metaagent.NewTestPhase()
	improve := metaagent.NewImprovePhase(completer, metaagent.DefaultImprovePhaseConfig())

	gateConfig := metaagent.QualityGateConfig{
		RequireAllGates: cfg.RequireAllQualityGates,
	}
	linterCfg := metaagent.DefaultLinterConfig()
	if cfg.LinterTimeout > 0 {
		linterCfg.Timeout = cfg.LinterTimeout
	}
	gateConfig = gateConfig.WithLinter(linterCfg)

	if cfg.CoverageThresholdPct > 0 {
		coverageCfg := metaagent.DefaultCoverageConfig()
		coverageCfg.ThresholdPercent = cfg.CoverageThresholdPct
		gateConfig = gateConfig.WithCoverage(coverageCfg)
	}

	evaluator := metaagent.NewQualityGateEvaluator(gateConfig)

	loopConfig := metaagent.DefaultConfig()
	if cfg.MaxIterations > 0 {
		loopConfig.MaxIterations = cfg.MaxIterations
	}

	timeBudget := metaagent.DefaultTimeBudgetConfig()
	if cfg.TimeBudgetMinutes > 0 {
		timeBudget.TotalDuration = time.Duration(cfg.TimeBudgetMinutes) * time.Minute
	}
	if cfg.WarningPercent > 0 {
		timeBudget.WarningPercent = cfg.WarningPercent
	}

	return metaagent.NewLoop(build, test, improve, evaluator, loopConfig, timeBudget)
}

// buildSlackNotifier wires pkg/slack.NewService from config.SlackConfig
// per the doc comment on that type: pages a reviewer on approval
// request/decision events. A nil or disabled config yields nil here;
// slack.NewService itself returns nil when the token or channel is
// empty, and a nil *slack.Service is safe to call.
func buildSlackNotifier(cfg *config.SlackConfig, dashboardURL string) *slack.Service {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	token := os.Getenv(cfg.TokenEnv)
	return slack.NewService(slack.ServiceConfig{
		Token:        token,
		Channel:      cfg.Channel,
		DashboardURL: dashboardURL,
	})
}

func resolveTimeout(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
