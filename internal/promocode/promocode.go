package promocode

import (
	"go.uber.org/zap"

	"VPN-Manager-bot/internal/logger"
	"VPN-Manager-bot/internal/storage"
)

// Promocode — одноразовый промокод на подписку фиксированной длительности.
type Promocode struct {
	Code         string `json:"code"`
	DurationDays int    `json:"duration_days"`
	Active       bool   `json:"active"`
}

// Service управляет промокодами поверх JSON-хранилища.
type Service struct {
	store *storage.Store[Promocode]
}

func NewService(store *storage.Store[Promocode]) *Service {
	return &Service{store: store}
}

// Get возвращает промокод по коду, только если он активен. Неактивный код
// неотличим от несуществующего — статус активации наружу не утекает.
func (s *Service) Get(code string) *Promocode {
	promos, err := s.store.ReadAll()
	if err != nil {
		logger.Error("failed to read promocodes", zap.Error(err))
		return nil
	}
	for _, p := range promos {
		if p.Code == code && p.Active {
			return &p
		}
	}
	return nil
}

// Use применяет промокод: находит активную запись и деактивирует её.
// Атомарность относительно других применений того же кода обеспечивает
// блокировка хранилища.
func (s *Service) Use(code string) bool {
	used := false
	err := s.store.Modify(func(promos []Promocode) ([]Promocode, bool, error) {
		for i := range promos {
			if promos[i].Code == code && promos[i].Active {
				promos[i].Active = false
				used = true
				return promos, true, nil
			}
		}
		return promos, false, nil
	})
	if err != nil {
		logger.Error("failed to use promocode", zap.String("code", code), zap.Error(err))
		return false
	}
	if !used {
		logger.Warn("promocode not found or already used", zap.String("code", code))
	}
	return used
}

// Add добавляет новый промокод. Коды уникальны независимо от активности —
// повторное использование кода не допускается.
func (s *Service) Add(code string, durationDays int) bool {
	added := false
	err := s.store.Modify(func(promos []Promocode) ([]Promocode, bool, error) {
		for _, p := range promos {
			if p.Code == code {
				return promos, false, nil
			}
		}
		added = true
		return append(promos, Promocode{Code: code, DurationDays: durationDays, Active: true}), true, nil
	})
	if err != nil {
		logger.Error("failed to add promocode", zap.String("code", code), zap.Error(err))
		return false
	}
	if added {
		logger.Info("promocode added", zap.String("code", code), zap.Int("duration_days", durationDays))
	}
	return added
}

// Remove удаляет промокод из хранилища.
func (s *Service) Remove(code string) bool {
	removed := false
	err := s.store.Modify(func(promos []Promocode) ([]Promocode, bool, error) {
		kept := promos[:0]
		for _, p := range promos {
			if p.Code == code {
				removed = true
				continue
			}
			kept = append(kept, p)
		}
		return kept, removed, nil
	})
	if err != nil {
		logger.Error("failed to remove promocode", zap.String("code", code), zap.Error(err))
		return false
	}
	return removed
}

// Deactivate отключает промокод, не помечая его применённым.
func (s *Service) Deactivate(code string) bool {
	deactivated := false
	err := s.store.Modify(func(promos []Promocode) ([]Promocode, bool, error) {
		for i := range promos {
			if promos[i].Code == code && promos[i].Active {
				promos[i].Active = false
				deactivated = true
				return promos, true, nil
			}
		}
		return promos, false, nil
	})
	if err != nil {
		logger.Error("failed to deactivate promocode", zap.String("code", code), zap.Error(err))
		return false
	}
	return deactivated
}

// List возвращает все промокоды, включая неактивные.
func (s *Service) List() []Promocode {
	promos, err := s.store.ReadAll()
	if err != nil {
		logger.Error("failed to list promocodes", zap.Error(err))
		return nil
	}
	return promos
}
