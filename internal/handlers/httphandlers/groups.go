package httphandlers

import (
	"github.com/Lumerin-protocol/posw-router/internal/resources/group"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
)

func (h *HTTPHandler) GetGroups(ctx *gin.Context) {
	groups := make([]group.Status, 0, len(h.groups))
	for _, g := range h.groups {
		groups = append(groups, g.Status())
	}

	slices.SortStableFunc(groups, func(a, b group.Status) bool {
		return a.Group < b.Group
	})

	ctx.JSON(200, GroupsResponse{Groups: groups})
}

func (h *HTTPHandler) GetGroup(ctx *gin.Context) {
	name := ctx.Param("name")

	for _, g := range h.groups {
		if g.Name() == name {
			ctx.JSON(200, g.Status())
			return
		}
	}

	ctx.JSON(404, gin.H{"error": "group not found"})
}
