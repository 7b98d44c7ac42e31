package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roomledger/roomledger/internal/agreement"
	agreementdomain "github.com/roomledger/roomledger/internal/agreement/domain"
	"github.com/roomledger/roomledger/internal/booking"
	bookingdomain "github.com/roomledger/roomledger/internal/booking/domain"
	"github.com/roomledger/roomledger/internal/commission"
	commissiondomain "github.com/roomledger/roomledger/internal/commission/domain"
	"github.com/roomledger/roomledger/internal/config"
	"github.com/roomledger/roomledger/internal/hotel"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/roomledger/roomledger/internal/observability"
	obsmiddleware "github.com/roomledger/roomledger/internal/observability/logger"
	obsmetrics "github.com/roomledger/roomledger/internal/observability/metrics"
	obstracing "github.com/roomledger/roomledger/internal/observability/tracing"
	"github.com/roomledger/roomledger/internal/ratelimit"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	hotel.Module,
	booking.Module,
	agreement.Module,
	commission.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
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
		Addr:    cfg.HTTPAddr,
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
	engine           *gin.Engine
	cfg              config.Config
	db               *gorm.DB
	genID            *snowflake.Node
	hotelSvc         hoteldomain.Service
	bookingSvc       bookingdomain.Service
	agreementSvc     agreementdomain.Service
	commissionSvc    commissiondomain.Service
	calculateLimiter *ratelimit.CalculateLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	HotelSvc      hoteldomain.Service
	BookingSvc    bookingdomain.Service
	AgreementSvc  agreementdomain.Service
	CommissionSvc commissiondomain.Service

	CalculateLimiter *ratelimit.CalculateLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		db:               p.DB,
		genID:            p.GenID,
		hotelSvc:         p.HotelSvc,
		bookingSvc:       p.BookingSvc,
		agreementSvc:     p.AgreementSvc,
		commissionSvc:    p.CommissionSvc,
		calculateLimiter: p.CalculateLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Hotels --------
	api.GET("/hotels", s.ListHotels)
	api.POST("/hotels", s.CreateHotel)
	api.GET("/hotels/:id", s.GetHotelByID)
	api.PATCH("/hotels/:id", s.UpdateHotel)

	// -------- Bookings --------
	api.GET("/bookings", s.ListBookings)
	api.POST("/bookings", s.CreateBooking)
	api.GET("/bookings/:id", s.GetBookingByID)
	api.POST("/bookings/:id/complete", s.CompleteBooking)
	api.POST("/bookings/:id/cancel", s.CancelBooking)

	// -------- Agreements --------
	api.GET("/agreements", s.ListAgreements)
	api.POST("/agreements", s.CreateAgreement)
	api.GET("/agreements/:id", s.GetAgreementByID)
	api.POST("/agreements/:id/deactivate", s.DeactivateAgreement)

	// -------- Commissions --------
	api.POST("/commissions/calculate", s.CalculateCommission)
	api.GET("/commissions/summary", s.GetMonthlySummary)
	api.GET("/commissions/records", s.ListMonthlyRecords)
	api.GET("/commissions/export", s.ExportCommissions)
}
