package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/courierhq/courier/destination"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

/* Loader manages destination bootstrap configuration from seed.yaml.
 * Deployments that want fixed destinations (local stacks, CI) declare them in
 * the file; anything already registered under the same ID is left untouched.
 */

// Config represents the structure of seed.yaml
type Config struct {
	Destinations []DestinationConfig `yaml:"destinations"`
}

// DestinationConfig represents a single destination in the YAML file
type DestinationConfig struct {
	ID       string `yaml:"id"`
	URL      string `yaml:"url"`
	Secret   string `yaml:"secret"`    // optional: generated when omitted
	IsActive *bool  `yaml:"is_active"` // optional: defaults to true
}

// Loader holds the loaded destinations
type Loader struct {
	destinations []destination.Destination
}

// NewLoader creates a new seed loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the seed file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing seed YAML: %w", err)
	}

	for _, dc := range config.Destinations {
		if dc.ID == "" {
			return fmt.Errorf("destination id cannot be empty")
		}
		if _, err := uuid.Parse(dc.ID); err != nil {
			return fmt.Errorf("destination id must be a UUID: %s", dc.ID)
		}

		secret := dc.Secret
		if secret == "" {
			secret = uuid.New().String()
		}

		isActive := true
		if dc.IsActive != nil {
			isActive = *dc.IsActive
		}

		d := destination.Destination{
			ID:        dc.ID,
			URL:       dc.URL,
			Secret:    secret,
			IsActive:  isActive,
			CreatedAt: time.Now().UTC(),
		}

		if err := d.Validate(); err != nil {
			return fmt.Errorf("validating destination %s: %w", dc.ID, err)
		}

		l.destinations = append(l.destinations, d)
	}

	return nil
}

// List returns all loaded destinations
func (l *Loader) List() []destination.Destination {
	return l.destinations
}

// Apply registers every loaded destination that does not yet exist
func (l *Loader) Apply(ctx context.Context, repo destination.Repository) error {
	for _, d := range l.destinations {
		_, err := repo.Get(ctx, d.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, destination.ErrNotFound) {
			return fmt.Errorf("checking destination %s: %w", d.ID, err)
		}

		if err := repo.Create(ctx, d); err != nil {
			return fmt.Errorf("seeding destination %s: %w", d.ID, err)
		}
	}
	return nil
}
