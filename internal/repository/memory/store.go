// Package memory keeps every repository in process. It backs the tests and
// runs the service when no database is configured.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/repository"
)

// Store holds all data behind a single lock. Values are copied in and out so
// callers never share state with the store.
type Store struct {
	mu sync.RWMutex

	tickets         map[string]*domain.Ticket
	ticketsByNumber map[string]string
	sequences       map[int]int
	messages        map[string][]domain.TicketMessage
	attachments     map[string][]domain.TicketAttachment
	assets          map[string]*domain.Asset
	links           map[string]map[string]struct{}
	settings        *domain.Settings
	staff           map[string]*domain.StaffMember
	profiles        map[string]*domain.SystemManagerProfile

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tickets:         make(map[string]*domain.Ticket),
		ticketsByNumber: make(map[string]string),
		sequences:       make(map[int]int),
		messages:        make(map[string][]domain.TicketMessage),
		attachments:     make(map[string][]domain.TicketAttachment),
		assets:          make(map[string]*domain.Asset),
		links:           make(map[string]map[string]struct{}),
		staff:           make(map[string]*domain.StaffMember),
		profiles:        make(map[string]*domain.SystemManagerProfile),
		now:             time.Now,
	}
}

func (s *Store) Tickets() repository.TicketRepository {
	return ticketStore{s}
}

func (s *Store) Sequences() repository.TicketSequenceRepository {
	return sequenceStore{s}
}

func (s *Store) Messages() repository.TicketMessageRepository {
	return messageStore{s}
}

func (s *Store) Attachments() repository.AttachmentRepository {
	return attachmentStore{s}
}

func (s *Store) Assets() repository.AssetRepository {
	return assetStore{s}
}

func (s *Store) Settings() repository.SettingsRepository {
	return settingsStore{s}
}

func (s *Store) Staff() repository.StaffRepository {
	return staffStore{s}
}

func (s *Store) SystemManagers() repository.SystemManagerRepository {
	return systemManagerStore{s}
}

func newID() string {
	return uuid.NewString()
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
