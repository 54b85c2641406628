package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

const (
	namespaceHeader     = "X-Namespace"
	ContextNamespaceKey = "namespace"
)

// Namespaces are embedded in store keys, so the key separator is excluded.
var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{0,64}$`)

// NamespaceMiddleware resolves the caller's namespace from the X-Namespace
// header. A missing header selects the default (empty) namespace.
func NamespaceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ns := c.GetHeader(namespaceHeader)
		if !namespacePattern.MatchString(ns) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid namespace header"})
			c.Abort()
			return
		}

		c.Set(ContextNamespaceKey, ns)

		c.Next()
	}
}

func GetNamespace(c *gin.Context) (string, bool) {
	ns, exists := c.Get(ContextNamespaceKey)
	if !exists {
		return "", false
	}
	nsStr, ok := ns.(string)
	return nsStr, ok
}
