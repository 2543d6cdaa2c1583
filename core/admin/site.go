package admin

import (
	"fmt"
	"sync"
)

// Site is the registry of the ModelAdmins.
type Site struct {
	mu     sync.RWMutex
	models map[string]*ModelAdmin
	order  []string
}

func NewSite() *Site {
	return &Site{models: make(map[string]*ModelAdmin)}
}

// Register adds a ModelAdmin to the site. It panics if the name is already registered.
func (s *Site) Register(ma *ModelAdmin) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[ma.Name]; ok {
		panic(fmt.Sprintf("admin: model %q is already registered", ma.Name))
	}
	if ma.ListPerPage <= 0 {
		ma.ListPerPage = DefaultListPerPage
	}
	if ma.VerboseNamePlural == "" {
		ma.VerboseNamePlural = ma.VerboseName + "s"
	}
	s.models[ma.Name] = ma
	s.order = append(s.order, ma.Name)
}

func (s *Site) Get(name string) (*ModelAdmin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ma, ok := s.models[name]
	return ma, ok
}

// Models returns the registered ModelAdmins in registration order.
func (s *Site) Models() []*ModelAdmin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	models := make([]*ModelAdmin, 0, len(s.order))
	for _, name := range s.order {
		models = append(models, s.models[name])
	}
	return models
}
