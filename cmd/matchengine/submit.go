package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go.uber.org/zap"

	"github.com/richxcame/matchengine/internal/domain"
	"github.com/richxcame/matchengine/internal/match"
	"github.com/richxcame/matchengine/pkg/logger"
	"github.com/richxcame/matchengine/pkg/security"
	"github.com/richxcame/matchengine/pkg/validation"
)

// registerSubmissionRoutes wires a minimal HTTP submission surface on top of
// the engine's method-call API (spec.md §6 describes this as an external
// stream; for manual/demo use without NATS, a validated HTTP POST reaches
// the same OnCustomer/OnVehicle entry points). Requests are validated with
// pkg/validation's struct tags before being translated into domain types.
func registerSubmissionRoutes(router *gin.Engine, engine *match.Engine, clock interface{ Now() domain.SimTime }) {
	router.POST("/customers", func(c *gin.Context) {
		var req validation.SubmitCustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := validation.ValidateSubmitCustomerRequest(&req); err != nil {
			logger.Warn("rejected customer submission",
				zap.String("customer_id", security.SanitizeString(req.CustomerID)), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		now := clock.Now()
		engine.OnCustomer(domain.Customer{
			ID:             domain.CustomerID(req.CustomerID),
			Origin:         domain.NodeID(req.OriginNode),
			Destination:    domain.NodeID(req.DestinationNode),
			EarliestPickup: now + simOffset(req.EarliestPickup),
			LatestDropoff:  now + simOffset(req.LatestDropoff),
			Load:           req.Load,
		})
		c.JSON(http.StatusAccepted, gin.H{"customer_id": req.CustomerID})
	})

	router.POST("/vehicles", func(c *gin.Context) {
		var req validation.RegisterVehicleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := validation.ValidateStruct(&req); err != nil {
			logger.Warn("rejected vehicle registration",
				zap.String("vehicle_id", security.SanitizeString(req.VehicleID)), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		now := clock.Now()
		engine.OnVehicle(domain.Vehicle{
			ID:       domain.VehicleID(req.VehicleID),
			Origin:   domain.NodeID(req.OriginNode),
			Earliest: now + simOffset(req.EarliestOnline),
			Latest:   domain.Infinite,
			Capacity: req.Capacity,
		})
		c.JSON(http.StatusAccepted, gin.H{"vehicle_id": req.VehicleID})
	})
}

// simOffset converts a wall-clock deadline into a sim-time offset from now,
// since pkg/validation's request structs (shared with the teacher's
// time.Time-based HTTP conventions) carry absolute times while the matcher
// operates on relative sim-time (spec.md §3).
func simOffset(t time.Time) domain.SimTime {
	d := time.Until(t)
	if d < 0 {
		return 0
	}
	return domain.SimTime(d.Seconds())
}
