package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ViktorAgafonov/ForecastOrder/internal/mapping"
)

type MappingHandler struct {
	store *mapping.Store
}

func NewMappingHandler(store *mapping.Store) *MappingHandler {
	return &MappingHandler{store: store}
}

// List returns all groups with their members.
func (h *MappingHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"groups": h.store.Groups()})
}

// Get returns one group by id.
func (h *MappingHandler) Get(c *gin.Context) {
	group, ok := h.store.Group(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	c.JSON(http.StatusOK, group)
}

type renameRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename changes a group's display name.
func (h *MappingHandler) Rename(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := h.store.RenameGroup(c.Param("id"), req.Name); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "group renamed"})
}

type mergeRequest struct {
	SourceID string `json:"source_id" binding:"required"`
	TargetID string `json:"target_id" binding:"required"`
}

// Merge moves all members of the source group into the target group.
func (h *MappingHandler) Merge(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_id and target_id are required"})
		return
	}
	if err := h.store.MergeGroups(req.SourceID, req.TargetID); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "groups merged"})
}

type memberRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// AddMember adds an item to a group, creating the group if needed.
func (h *MappingHandler) AddMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Name == "" && req.Code == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name or code is required"})
		return
	}
	if err := h.store.AddMember(c.Param("id"), req.Name, req.Code); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member added"})
}

// RemoveMember removes an item from a group. The group itself is deleted
// when its last member goes.
func (h *MappingHandler) RemoveMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Name == "" && req.Code == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name or code is required"})
		return
	}
	if err := h.store.RemoveMember(c.Param("id"), req.Name, req.Code); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}

func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mapping.ErrGroupNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
	case errors.Is(err, mapping.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found in group"})
	case errors.Is(err, mapping.ErrDuplicateItem):
		c.JSON(http.StatusConflict, gin.H{"error": "item already present in group"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
