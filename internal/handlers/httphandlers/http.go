package httphandlers

import (
	"net/http/pprof"

	"github.com/Lumerin-protocol/posw-router/internal/config"
	"github.com/Lumerin-protocol/posw-router/internal/interfaces"
	"github.com/Lumerin-protocol/posw-router/internal/resources/group"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type GroupStatusProvider interface {
	Name() string
	Status() group.Status
}

type Sanitizable interface {
	GetSanitized() interface{}
}

type HTTPHandler struct {
	groups   []GroupStatusProvider
	config   Sanitizable
	gatherer prometheus.Gatherer
	log      interfaces.ILogger
}

func NewHTTPHandler(groups []GroupStatusProvider, cfg Sanitizable, gatherer prometheus.Gatherer, log interfaces.ILogger) *gin.Engine {
	handl := &HTTPHandler{
		groups:   groups,
		config:   cfg,
		gatherer: gatherer,
		log:      log,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthcheck", handl.HealthCheck)
	r.GET("/groups", handl.GetGroups)
	r.GET("/groups/:name", handl.GetGroup)
	r.GET("/config", handl.GetConfig)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.Any("/debug/pprof/*action", gin.WrapF(pprof.Index))

	err := r.SetTrustedProxies(nil)
	if err != nil {
		panic(err)
	}

	return r
}

func (h *HTTPHandler) HealthCheck(ctx *gin.Context) {
	ctx.JSON(200, gin.H{
		"status":  "healthy",
		"version": config.BuildVersion,
	})
}
