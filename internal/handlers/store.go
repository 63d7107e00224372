package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Plain pass-through reads over the cached HR proxy.

func (a *API) Persons(c *gin.Context) {
	persons, err := a.Manager.Proxy().Persons(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, persons)
}

func (a *API) Entities(c *gin.Context) {
	entities, err := a.Manager.Proxy().Entities(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entities)
}

func (a *API) Relationships(c *gin.Context) {
	rels, err := a.Manager.Proxy().Relationships(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rels)
}

// Clustering forwards the K-means convenience endpoint untouched.
func (a *API) Clustering(c *gin.Context) {
	nClusters, err := strconv.Atoi(c.DefaultQuery("n_clusters", "3"))
	if err != nil || nClusters < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n_clusters must be a positive integer"})
		return
	}
	var attributes []string
	for _, raw := range c.QueryArray("attributes") {
		if v := strings.TrimSpace(raw); v != "" {
			attributes = append(attributes, v)
		}
	}

	clusters, err := a.Manager.Proxy().Clustering(c.Request.Context(), nClusters, attributes)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", clusters)
}

// DeletePerson forwards the delete and invalidates the cache.
func (a *API) DeletePerson(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}
	if err := a.Manager.Proxy().DeletePerson(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "person deleted"})
}

// DeleteEntity forwards the delete and invalidates the cache.
func (a *API) DeleteEntity(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity id"})
		return
	}
	if err := a.Manager.Proxy().DeleteEntity(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entity deleted"})
}

// ClearCache drops every cached HR resource.
func (a *API) ClearCache(c *gin.Context) {
	a.Manager.Proxy().InvalidateAll()
	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared successfully."})
}
