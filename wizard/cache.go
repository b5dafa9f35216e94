package wizard

import (
	"sync"

	"github.com/Dosada05/fitarena-system/models"
)

// CompetitionList - локальный список соревнований главного экрана.
// Новое соревнование встаёт в начало, чтобы показаться сразу после
// создания, не дожидаясь перезагрузки списка с сервера.
type CompetitionList struct {
	mu    sync.RWMutex
	items []*models.Competition
}

func NewCompetitionList() *CompetitionList {
	return &CompetitionList{items: make([]*models.Competition, 0)}
}

func (l *CompetitionList) Prepend(competition *models.Competition) {
	if competition == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, item := range l.items {
		if item.ID == competition.ID {
			l.items = append(l.items[:i], l.items[i+1:]...)
			break
		}
	}
	l.items = append([]*models.Competition{competition}, l.items...)
}

func (l *CompetitionList) Replace(items []*models.Competition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make([]*models.Competition, len(items))
	copy(l.items, items)
}

func (l *CompetitionList) Items() []*models.Competition {
	l.mu.RLock()
	defer l.mu.RUnlock()
	items := make([]*models.Competition, len(l.items))
	copy(items, l.items)
	return items
}
