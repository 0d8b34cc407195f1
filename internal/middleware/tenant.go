package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/solar-lifecycle-api/pkg/httputil"
)

const (
	HeaderXOrganizationID = "X-Organization-ID"
	ContextOrganizationID = "organization_id"
)

// Tenant resolves the calling organization. Authentication happens upstream;
// this only requires a well-formed id so every query can be scoped by it.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.GetHeader(HeaderXOrganizationID))
		if err != nil || orgID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, httputil.Response{
				Status:  "error",
				Message: HeaderXOrganizationID + " header must be a valid organization id",
			})
			return
		}
		c.Set(ContextOrganizationID, orgID)
		c.Next()
	}
}

// OrganizationID returns the tenant set by Tenant, or uuid.Nil.
func OrganizationID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextOrganizationID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
