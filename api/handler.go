package api

import (
	"go.uber.org/fx"

	"github.com/tidepool-org/caretrack/summary"
)

type Handler struct {
	summaries summary.Service
}

type Params struct {
	fx.In

	Summaries summary.Service
}

func NewHandler(p Params) *Handler {
	return &Handler{
		summaries: p.Summaries,
	}
}
