package service

import (
	"errors"
	"strings"

	"solmeme-pipeline/internal/models"
	"solmeme-pipeline/internal/repository"
)

// Ошибки сервиса deny-листа
var (
	ErrDenylistAddressEmpty = errors.New("address cannot be empty")
	ErrDenylistAddressExists = errors.New("address already in denylist")
	ErrDenylistEntryNotFound = errors.New("denylist entry not found")
)

// DenylistRepositoryInterface is the persistence surface DenylistService
// needs; *repository.DenylistRepository satisfies it. Narrowing to an
// interface here (rather than the concrete repository type) lets tests
// exercise the service's validation and error-mapping logic against an
// in-memory fake instead of sqlmock.
type DenylistRepositoryInterface interface {
	Create(entry *models.DenylistEntry) error
	GetAll() ([]*models.DenylistEntry, error)
	GetByAddress(address string) (*models.DenylistEntry, error)
	Delete(address string) error
	Exists(address string) (bool, error)
	UpdateReason(address, reason string) error
	Count() (int, error)
	DeleteAll() error
	Search(query string) ([]*models.DenylistEntry, error)
}

// DenylistService предоставляет бизнес-логику для управления постоянным
// списком исключенных адресов токенов (известные rug/scam минты).
//
// В отличие от Enrichment Orchestrator'а, который оценивает адрес по
// свежим данным, deny-лист - это операторский override: если адрес в
// нем, Scoring принудительно возвращает SKIP независимо от
// вычисленного score (см. internal/scoring).
//
// Отвечает за:
// - Добавление адреса в deny-лист с причиной
// - Получение списка запрещенных адресов
// - Удаление адреса из deny-листа
// - Поиск по части адреса
type DenylistService struct {
	denylistRepo DenylistRepositoryInterface
}

// NewDenylistService создает новый экземпляр DenylistService.
func NewDenylistService(denylistRepo DenylistRepositoryInterface) *DenylistService {
	return &DenylistService{
		denylistRepo: denylistRepo,
	}
}

// AddToDenylist добавляет адрес в deny-лист.
//
// Адрес не нормализуется регистром - Solana base58 минты чувствительны
// к регистру.
//
// Возвращает:
// - *models.DenylistEntry: созданная запись
// - error: ErrDenylistAddressEmpty если адрес пустой,
//          ErrDenylistAddressExists если адрес уже в списке
func (s *DenylistService) AddToDenylist(address, reason string) (*models.DenylistEntry, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrDenylistAddressEmpty
	}

	exists, err := s.denylistRepo.Exists(address)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDenylistAddressExists
	}

	entry := &models.DenylistEntry{
		Address: address,
		Reason:  strings.TrimSpace(reason),
	}

	if err := s.denylistRepo.Create(entry); err != nil {
		if errors.Is(err, repository.ErrDenylistEntryExists) {
			return nil, ErrDenylistAddressExists
		}
		return nil, err
	}

	return entry, nil
}

// GetDenylist возвращает весь deny-лист, отсортированный по дате
// добавления (новые сверху).
func (s *DenylistService) GetDenylist() ([]*models.DenylistEntry, error) {
	entries, err := s.denylistRepo.GetAll()
	if err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []*models.DenylistEntry{}
	}

	return entries, nil
}

// RemoveFromDenylist удаляет адрес из deny-листа.
//
// Возвращает:
// - error: ErrDenylistEntryNotFound если адрес не найден
func (s *DenylistService) RemoveFromDenylist(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return ErrDenylistAddressEmpty
	}

	err := s.denylistRepo.Delete(address)
	if err != nil {
		if errors.Is(err, repository.ErrDenylistEntryNotFound) {
			return ErrDenylistEntryNotFound
		}
		return err
	}

	return nil
}

// GetByAddress возвращает запись deny-листа по адресу.
func (s *DenylistService) GetByAddress(address string) (*models.DenylistEntry, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrDenylistAddressEmpty
	}

	entry, err := s.denylistRepo.GetByAddress(address)
	if err != nil {
		if errors.Is(err, repository.ErrDenylistEntryNotFound) {
			return nil, ErrDenylistEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}

// IsDenylisted проверяет, находится ли адрес в deny-листе.
//
// Used by Scoring as a hard veto ahead of the usual subscore path.
func (s *DenylistService) IsDenylisted(address string) (bool, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return false, ErrDenylistAddressEmpty
	}

	return s.denylistRepo.Exists(address)
}

// UpdateReason обновляет причину добавления в deny-лист.
func (s *DenylistService) UpdateReason(address, reason string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return ErrDenylistAddressEmpty
	}

	err := s.denylistRepo.UpdateReason(address, strings.TrimSpace(reason))
	if err != nil {
		if errors.Is(err, repository.ErrDenylistEntryNotFound) {
			return ErrDenylistEntryNotFound
		}
		return err
	}

	return nil
}

// Search ищет записи по части адреса.
func (s *DenylistService) Search(query string) ([]*models.DenylistEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.GetDenylist()
	}

	entries, err := s.denylistRepo.Search(query)
	if err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []*models.DenylistEntry{}
	}

	return entries, nil
}

// GetCount возвращает количество записей в deny-листе.
func (s *DenylistService) GetCount() (int, error) {
	return s.denylistRepo.Count()
}

// ClearAllDenylist очищает весь deny-лист.
//
// Используйте с осторожностью - удаляет все записи без возможности восстановления.
func (s *DenylistService) ClearAllDenylist() error {
	return s.denylistRepo.DeleteAll()
}
