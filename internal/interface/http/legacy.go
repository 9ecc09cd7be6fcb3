package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/derma-advisor/internal/domain/recovery"
)

// bodyShape selects how results and errors are serialized for a route.
type bodyShape int

const (
	// shapeEnvelope is the /api/v1 contract: the recovery envelope and structured errors.
	shapeEnvelope bodyShape = iota
	// shapeLegacyWrapped answers {"result": ...} on success, as the mole page expects.
	shapeLegacyWrapped
	// shapeLegacyBare answers the result object itself, as the plan page expects.
	shapeLegacyBare
)

const bodyShapeKey = "body_shape"

// legacyBody marks a route as serving the web client's original response bodies.
func legacyBody(shape bodyShape) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(bodyShapeKey, shape)
		c.Next()
	}
}

func shapeOf(c *gin.Context) bodyShape {
	v, ok := c.Get(bodyShapeKey)
	if !ok {
		return shapeEnvelope
	}
	shape, _ := v.(bodyShape)
	return shape
}

// legacyFailure is the web client's error body; the client renders error as text.
type legacyFailure struct {
	Error   string `json:"error"`
	Content string `json:"content,omitempty"`
	Details string `json:"details,omitempty"`
}

// writeEnvelope renders the envelope for the route's shape; non-ok envelopes are 502.
func writeEnvelope(c *gin.Context, env recovery.Envelope) {
	status := http.StatusOK
	if !env.OK() {
		status = http.StatusBadGateway
	}

	shape := shapeOf(c)
	if shape == shapeEnvelope {
		c.JSON(status, env)
		return
	}
	if !env.OK() {
		c.JSON(status, legacyFailure{Error: env.Error, Content: env.Content, Details: env.Details})
		return
	}
	if shape == shapeLegacyBare {
		c.JSON(status, env.Result)
		return
	}
	c.JSON(status, gin.H{"result": env.Result})
}

// writeError renders an HTTPError for the route's shape.
func writeError(c *gin.Context, httpErr *HTTPError, message string) {
	if shapeOf(c) != shapeEnvelope {
		c.JSON(httpErr.Status, legacyFailure{Error: message})
		return
	}
	c.JSON(httpErr.Status, gin.H{
		"error": gin.H{
			"code":    httpErr.Code,
			"message": message,
		},
	})
}
