package handlers

import (
	"net/http"

	"jojos_back_end/internal/database"

	"github.com/gin-gonic/gin"
)

// Health reports the status of the backing stores.
func Health(deps *database.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		mongoOK := deps.Mongo.Client().Ping(ctx, nil) == nil
		redisOK := deps.Redis.Ping(ctx).Err() == nil

		status := "ok"
		code := http.StatusOK
		if !mongoOK || !redisOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status": status,
			"mongo":  mongoOK,
			"redis":  redisOK,
			"search": deps.Elastic != nil,
			"minio":  deps.MinIO != nil,
		})
	}
}
