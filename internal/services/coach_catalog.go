package services

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fitlio/coach-backend/internal/pkg/logger"
	"github.com/fitlio/coach-backend/internal/utils"
)

// CoachPersona is one configured coach character. The system prompt carries
// the persona's voice; tone is surfaced to clients for styling.
type CoachPersona struct {
	ID           string `yaml:"id" json:"id"`
	DisplayName  string `yaml:"display_name" json:"display_name"`
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`
	Tone         string `yaml:"tone" json:"tone"`
}

type coachCatalogFile struct {
	Coaches []CoachPersona `yaml:"coaches"`
}

// CoachCatalog resolves coach IDs to personas. Loaded once at startup; a
// missing or broken file degrades to the built-in default persona.
type CoachCatalog struct {
	log      *logger.Logger
	byID     map[string]CoachPersona
	fallback CoachPersona
}

func defaultPersona() CoachPersona {
	return CoachPersona{
		ID:          "coach-lisa",
		DisplayName: "Lisa",
		SystemPrompt: strings.TrimSpace(`
Du bist Lisa, eine freundliche und direkte Fitness-Coachin.
Du antwortest auf Deutsch, kurz und konkret, und duzt den Nutzer.
Du gibst keine medizinischen Diagnosen und verweist bei gesundheitlichen Problemen an Fachpersonal.`),
		Tone: "supportive",
	}
}

func NewCoachCatalog(baseLog *logger.Logger) *CoachCatalog {
	log := baseLog.With("service", "CoachCatalog")
	cat := &CoachCatalog{
		log:      log,
		byID:     map[string]CoachPersona{},
		fallback: defaultPersona(),
	}

	path := utils.GetEnv("COACH_CATALOG_PATH", "configs/coaches.yaml", log)
	if err := cat.loadFile(path); err != nil {
		log.Warn("coach catalog unavailable, using default persona", "path", path, "error", err)
	}
	if _, ok := cat.byID[cat.fallback.ID]; !ok {
		cat.byID[cat.fallback.ID] = cat.fallback
	}
	return cat
}

func (c *CoachCatalog) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file coachCatalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse coach catalog: %w", err)
	}
	for _, p := range file.Coaches {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" || strings.TrimSpace(p.SystemPrompt) == "" {
			c.log.Warn("skipping invalid coach persona", "id", p.ID)
			continue
		}
		c.byID[p.ID] = p
	}
	return nil
}

// Get never fails; unknown IDs resolve to the default persona.
func (c *CoachCatalog) Get(coachID string) CoachPersona {
	if p, ok := c.byID[strings.TrimSpace(coachID)]; ok {
		return p
	}
	return c.fallback
}

// List returns all configured personas in a stable order.
func (c *CoachCatalog) List() []CoachPersona {
	out := make([]CoachPersona, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *CoachCatalog) Known(coachID string) bool {
	_, ok := c.byID[strings.TrimSpace(coachID)]
	return ok
}
