// Package api exposes stamp records over HTTP/JSON.
package api

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/stampclock/internal/tracking"
)

// NewRouter wires the record routes. ping backs /healthz and may be nil.
func NewRouter(svc *tracking.Service, logger *log.Logger, ping func(context.Context) error) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(logger))

	r.GET("/healthz", Health(ping))

	h := NewRecordHandler(svc)
	records := r.Group("/stamp-records")
	{
		records.GET("/all/:userId", h.ListByUser)
		records.GET("/status/:userId", h.Status)
		records.GET("/range/:userId", h.Range)
		records.GET("/:recordId", h.Get)
		records.GET("/:recordId/worked-time", h.WorkedTime)
		records.POST("", h.Create)
		records.PUT("/:recordId", h.Update)
		records.DELETE("/:recordId", h.Delete)
	}

	return r
}
