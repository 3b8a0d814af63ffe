package httphandlers

import "github.com/Lumerin-protocol/posw-router/internal/resources/group"

type ConfigResponse struct {
	Version string      `json:"version"`
	Config  interface{} `json:"config"`
}

type GroupsResponse struct {
	Groups []group.Status `json:"groups"`
}
