package node

import "github.com/gin-gonic/gin"

// Node is an HTTP-facing process identity.
type Node interface {
	NodeID() string
	Kind() string
	HTTPRouter() *gin.Engine
}
