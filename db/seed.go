package db

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"eventgo/models"
)

//go:embed demo.yaml
var demoSeed []byte

type seedFile struct {
	Users  []seedUser  `yaml:"users"`
	Events []seedEvent `yaml:"events"`
}

type seedUser struct {
	Key      string `yaml:"key"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type seedEvent struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	DaysFromNow int                 `yaml:"daysFromNow"`
	Location    models.Location     `yaml:"location"`
	Capacity    int                 `yaml:"capacity"`
	Image       string              `yaml:"image"`
	Images      []string            `yaml:"images"`
	CreatedBy   string              `yaml:"createdBy"`
	TicketTypes []models.TicketType `yaml:"ticketTypes"`
}

// LoadSeed returns the seed document at path, or the embedded demo data
// when path is empty.
func LoadSeed(path string) ([]byte, error) {
	if path == "" {
		return demoSeed, nil
	}
	return os.ReadFile(path)
}

// Seed inserts the users and events described by a YAML seed document.
// Event creators refer to users by key.
func Seed(ctx context.Context, store Store, data []byte, now time.Time) error {
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}

	ids := map[string]string{}
	for _, su := range sf.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u := &models.User{
			Name:         su.Name,
			Email:        strings.ToLower(su.Email),
			PasswordHash: string(hash),
			Role:         su.Role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := store.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", su.Email, err)
		}
		ids[su.Key] = u.ID
	}

	for _, se := range sf.Events {
		creator, ok := ids[se.CreatedBy]
		if !ok {
			return fmt.Errorf("seed event %q: unknown creator %q", se.Name, se.CreatedBy)
		}
		e := &models.Event{
			Name:        se.Name,
			Description: se.Description,
			Date:        now.AddDate(0, 0, se.DaysFromNow),
			Location:    se.Location,
			Capacity:    se.Capacity,
			Image:       se.Image,
			Images:      se.Images,
			TicketTypes: se.TicketTypes,
			CreatedBy:   creator,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if e.Images == nil {
			e.Images = []string{}
		}
		if err := store.CreateEvent(ctx, e); err != nil {
			return fmt.Errorf("seed event %q: %w", se.Name, err)
		}
	}

	log.Printf("Seeded %d users and %d events", len(sf.Users), len(sf.Events))
	return nil
}
