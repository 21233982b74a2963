package service

import (
	"github.com/hakalabs/hakabot/internal/config"
)

// WidgetBootstrap is what the embedded widget needs to configure itself
type WidgetBootstrap struct {
	Greeting     string `json:"greeting"`
	Placeholder  string `json:"placeholder"`
	Theme        string `json:"theme"`
	PrimaryColor string `json:"primary_color"`
}

// WidgetService serves the widget bootstrap configuration
type WidgetService struct {
	cfg *config.Config
}

// NewWidgetService creates a new widget service
func NewWidgetService(cfg *config.Config) *WidgetService {
	return &WidgetService{cfg: cfg}
}

// Bootstrap returns the deployment's widget appearance
func (s *WidgetService) Bootstrap() *WidgetBootstrap {
	return &WidgetBootstrap{
		Greeting:     s.cfg.Widget.Greeting,
		Placeholder:  s.cfg.Widget.Placeholder,
		Theme:        s.cfg.Widget.Theme,
		PrimaryColor: s.cfg.Widget.PrimaryColor,
	}
}
