package main

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openmart/storefront/internal/config"
	"github.com/openmart/storefront/internal/discovery"
	"github.com/openmart/storefront/internal/handlers"
)

const defaultPort = 8080

// Gateway proxies the public API onto Consul-discovered service instances,
// refreshing routes periodically so instances can move.
type Gateway struct {
	consul   *discovery.ConsulClient
	logger   *zap.Logger
	proxies  map[string]*httputil.ReverseProxy
	mutex    sync.RWMutex
	services map[string]string
}

func NewGateway(consul *discovery.ConsulClient, logger *zap.Logger) *Gateway {
	g := &Gateway{
		consul:   consul,
		logger:   logger,
		proxies:  make(map[string]*httputil.ReverseProxy),
		services: make(map[string]string),
	}

	g.discoverServices()
	go g.watchServices()

	return g
}

func (g *Gateway) discoverServices() {
	services := []string{"product-service", "order-service"}

	for _, svc := range services {
		var serviceURL string
		if g.consul != nil {
			u, err := g.consul.GetServiceURL(svc)
			if err == nil {
				g.updateProxy(svc, u)
				continue
			}
			g.logger.Warn("service not found in Consul", zap.String("service", svc), zap.Error(err))
		}
		// Fall back to cluster DNS.
		switch svc {
		case "product-service":
			serviceURL = "http://product-service:8081"
		case "order-service":
			serviceURL = "http://order-service:8082"
		}
		g.updateProxy(svc, serviceURL)
	}
}

func (g *Gateway) updateProxy(serviceName, serviceURL string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	target, err := url.Parse(serviceURL)
	if err != nil {
		g.logger.Error("invalid service URL", zap.String("service", serviceName), zap.Error(err))
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		g.logger.Error("proxy error", zap.String("service", serviceName), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"message": "service unavailable"}`)
	}

	if g.services[serviceName] != serviceURL {
		g.logger.Info("route updated", zap.String("service", serviceName), zap.String("url", serviceURL))
	}
	g.proxies[serviceName] = proxy
	g.services[serviceName] = serviceURL
}

func (g *Gateway) watchServices() {
	ticker := time.NewTicker(10 * time.Second)
	for range ticker.C {
		g.discoverServices()
	}
}

func (g *Gateway) getProxy(serviceName string) *httputil.ReverseProxy {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.proxies[serviceName]
}

func (g *Gateway) proxyTo(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		proxy := g.getProxy(serviceName)
		if proxy == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": serviceName + " unavailable"})
			return
		}
		proxy.ServeHTTP(c.Writer, c.Request)
	}
}

func (g *Gateway) HealthCheck(c *gin.Context) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	statuses := make(map[string]string)
	allHealthy := true

	client := &http.Client{Timeout: 2 * time.Second}

	for name, serviceURL := range g.services {
		resp, err := client.Get(serviceURL + "/health")
		if err != nil || resp.StatusCode != http.StatusOK {
			statuses[name] = "unhealthy"
			allHealthy = false
		} else {
			statuses[name] = "healthy"
		}
		if resp != nil {
			resp.Body.Close()
		}
	}

	status := "healthy"
	if !allHealthy {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"service":  "api-gateway",
		"services": statuses,
	})
}

func (g *Gateway) ListServices(c *gin.Context) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	c.JSON(http.StatusOK, gin.H{"services": g.services})
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = defaultPort
	}

	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		logger.Warn("Consul unavailable, using cluster DNS", zap.Error(err))
		consul = nil
	}

	gateway := NewGateway(consul, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.RequestID())
	router.Use(handlers.Logger(logger))

	router.GET("/health", gateway.HealthCheck)
	router.GET("/services", gateway.ListServices)

	router.Any("/products", gateway.proxyTo("product-service"))
	router.Any("/products/*path", gateway.proxyTo("product-service"))
	router.Any("/orders", gateway.proxyTo("order-service"))
	router.Any("/orders/*path", gateway.proxyTo("order-service"))

	logger.Info("starting server", zap.String("service", "api-gateway"), zap.Int("port", cfg.HTTPPort))
	if err := router.Run(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
