package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/AndreaSpaggiari/sito-andrea/internal/auth"
	authdomain "github.com/AndreaSpaggiari/sito-andrea/internal/auth/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/auth/session"
	"github.com/AndreaSpaggiari/sito-andrea/internal/authorization"
	"github.com/AndreaSpaggiari/sito-andrea/internal/catalog"
	catalogdomain "github.com/AndreaSpaggiari/sito-andrea/internal/catalog/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/chat"
	chatdomain "github.com/AndreaSpaggiari/sito-andrea/internal/chat/domain"
	chathub "github.com/AndreaSpaggiari/sito-andrea/internal/chat/hub"
	"github.com/AndreaSpaggiari/sito-andrea/internal/config"
	"github.com/AndreaSpaggiari/sito-andrea/internal/handball"
	handballdomain "github.com/AndreaSpaggiari/sito-andrea/internal/handball/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/intake"
	intakedomain "github.com/AndreaSpaggiari/sito-andrea/internal/intake/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/observability"
	obslogger "github.com/AndreaSpaggiari/sito-andrea/internal/observability/logger"
	obsmetrics "github.com/AndreaSpaggiari/sito-andrea/internal/observability/metrics"
	obstracing "github.com/AndreaSpaggiari/sito-andrea/internal/observability/tracing"
	"github.com/AndreaSpaggiari/sito-andrea/internal/permission"
	permissiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/permission/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/production"
	productiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/production/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/ratelimit"
	"github.com/AndreaSpaggiari/sito-andrea/internal/report"
	"github.com/AndreaSpaggiari/sito-andrea/internal/workorder"
	workorderdomain "github.com/AndreaSpaggiari/sito-andrea/internal/workorder/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	catalog.Module,
	workorder.Module,
	production.Module,
	report.Module,
	permission.Module,
	chat.Module,
	handball.Module,
	intake.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	authsvc       authdomain.Service
	sessions      *session.Manager
	authzSvc      authorization.Service
	catalogSvc    catalogdomain.Service
	workOrderSvc  workorderdomain.Service
	productionSvc productiondomain.Service
	reportSvc     report.Service
	permissionSvc permissiondomain.Service
	chatSvc       chatdomain.Service
	chatHub       *chathub.Hub
	handballSvc   handballdomain.Service
	intakeSvc     intakedomain.Service
	scanLimiter   *ratelimit.ScanLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	Authsvc       authdomain.Service
	Sessions      *session.Manager
	AuthzSvc      authorization.Service
	CatalogSvc    catalogdomain.Service
	WorkOrderSvc  workorderdomain.Service
	ProductionSvc productiondomain.Service
	ReportSvc     report.Service
	PermissionSvc permissiondomain.Service
	ChatSvc       chatdomain.Service
	ChatHub       *chathub.Hub
	HandballSvc   handballdomain.Service
	IntakeSvc     intakedomain.Service
	ScanLimiter   *ratelimit.ScanLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		authsvc:       p.Authsvc,
		sessions:      p.Sessions,
		authzSvc:      p.AuthzSvc,
		catalogSvc:    p.CatalogSvc,
		workOrderSvc:  p.WorkOrderSvc,
		productionSvc: p.ProductionSvc,
		reportSvc:     p.ReportSvc,
		permissionSvc: p.PermissionSvc,
		chatSvc:       p.ChatSvc,
		chatHub:       p.ChatHub,
		handballSvc:   p.HandballSvc,
		intakeSvc:     p.IntakeSvc,
		scanLimiter:   p.ScanLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerPublicRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/register", s.Register)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

// registerPublicRoutes exposes the handball league read endpoints; the
// village team page works without an account.
func (s *Server) registerPublicRoutes() {
	pub := s.engine.Group("/api/handball")

	pub.GET("/teams", s.ListHandballTeams)
	pub.GET("/matches", s.ListHandballMatches)
	pub.GET("/standings", s.HandballStandings)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())

	// -------- Catalog --------
	api.GET("/machines", s.RequireAction(authorization.ObjectCatalog, authorization.ActionCatalogView), s.ListMachines)
	api.GET("/phases", s.RequireAction(authorization.ObjectCatalog, authorization.ActionCatalogView), s.ListPhases)
	api.GET("/clients", s.RequireAction(authorization.ObjectCatalog, authorization.ActionCatalogView), s.ListClients)

	// -------- Work orders --------
	orders := api.Group("", s.SectionApproved(permissiondomain.SectionProduzione))
	orders.GET("/orders", s.RequireAction(authorization.ObjectWorkOrder, authorization.ActionWorkOrderView), s.ListWorkOrders)
	orders.GET("/orders/:id", s.RequireAction(authorization.ObjectWorkOrder, authorization.ActionWorkOrderView), s.GetWorkOrderByID)
	orders.POST("/orders", s.RequireAction(authorization.ObjectWorkOrder, authorization.ActionWorkOrderEnqueue), s.EnqueueWorkOrder)
	orders.POST("/orders/:id/start", s.RequireAction(authorization.ObjectWorkOrder, authorization.ActionWorkOrderStart), s.StartWorkOrder)
	orders.POST("/orders/:id/finish", s.RequireAction(authorization.ObjectWorkOrder, authorization.ActionWorkOrderFinish), s.FinishWorkOrder)

	// -------- Production views --------
	prod := api.Group("", s.SectionApproved(permissiondomain.SectionProduzione))
	prod.GET("/production/daily", s.RequireAction(authorization.ObjectProduction, authorization.ActionProductionView), s.DailyOutput)
	prod.GET("/production/average", s.RequireAction(authorization.ObjectProduction, authorization.ActionProductionView), s.RollingAverage)
	prod.GET("/production/backlog", s.RequireAction(authorization.ObjectProduction, authorization.ActionProductionView), s.Backlog)
	prod.GET("/production/matrix", s.RequireAction(authorization.ObjectProduction, authorization.ActionProductionView), s.ProductionMatrix)
	prod.GET("/production/report", s.RequireAction(authorization.ObjectReport, authorization.ActionReportView), s.DailyProductionReport)

	// -------- Scans --------
	scans := api.Group("", s.SectionApproved(permissiondomain.SectionProduzione))
	scans.POST("/scans/production-form", s.RequireAction(authorization.ObjectScan, authorization.ActionScanUse), s.ScanRateLimit(), s.AnalyzeProductionForm)
	scans.GET("/scans", s.RequireAction(authorization.ObjectScan, authorization.ActionScanUse), s.ListScanUploads)

	// -------- Permissions --------
	api.POST("/permissions/request", s.RequireAction(authorization.ObjectPermission, authorization.ActionPermissionRequest), s.RequestSection)
	api.GET("/permissions/mine", s.MySections)
	api.GET("/permissions/pending", s.RequireAction(authorization.ObjectPermission, authorization.ActionPermissionDecide), s.ListPendingSections)
	api.POST("/permissions/decide", s.RequireAction(authorization.ObjectPermission, authorization.ActionPermissionDecide), s.DecideSection)

	// -------- Chat --------
	api.GET("/chat/history", s.RequireAction(authorization.ObjectChat, authorization.ActionChatUse), s.ChatHistory)
	api.POST("/chat/messages", s.RequireAction(authorization.ObjectChat, authorization.ActionChatUse), s.PostChatMessage)
	api.GET("/chat/stream", s.RequireAction(authorization.ObjectChat, authorization.ActionChatUse), s.StreamChat)
	api.GET("/chat/presence", s.RequireAction(authorization.ObjectChat, authorization.ActionChatUse), s.ChatPresence)

	// -------- Handball management --------
	hb := api.Group("", s.SectionApproved(permissiondomain.SectionPallamano))
	hb.POST("/handball/teams", s.RequireAction(authorization.ObjectHandball, authorization.ActionHandballManage), s.CreateHandballTeam)
	hb.POST("/handball/matches", s.RequireAction(authorization.ObjectHandball, authorization.ActionHandballManage), s.ScheduleHandballMatch)
	hb.POST("/handball/matches/:id/result", s.RequireAction(authorization.ObjectHandball, authorization.ActionHandballManage), s.RecordHandballResult)
	hb.POST("/handball/match-sheet", s.RequireAction(authorization.ObjectScan, authorization.ActionScanUse), s.ScanRateLimit(), s.AnalyzeMatchSheet)
}
