package game

// Template operations. Templates have no live state, so a plain map
// under the manager lock is enough; every write goes straight through
// to the store.

func (m *Manager) Templates() []*Template {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t.Clone())
	}
	return out
}

func (m *Manager) GetTemplate(id string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t := m.templates[id]
	if t == nil {
		return nil, ErrTemplateNotFound
	}
	return t.Clone(), nil
}

func (m *Manager) CreateTemplate(name string, categories []*Category) (*Template, error) {
	if len(categories) > MaxCategories {
		return nil, ErrTooManyCategories
	}
	t := NewTemplate(name, categories)
	if err := m.putTemplate(t); err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// SaveTemplateFromGame snapshots a live game's board as a reusable
// template.
func (m *Manager) SaveTemplateFromGame(gameID, name string) (*Template, error) {
	g, err := m.Game(gameID)
	if err != nil {
		return nil, err
	}
	t := TemplateFromGame(name, g)
	if err := m.putTemplate(t); err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// TemplateUpdate carries the fields a template edit may replace.
type TemplateUpdate struct {
	Name       *string     `json:"name"`
	Categories []*Category `json:"categories"`
}

func (m *Manager) UpdateTemplate(id string, upd TemplateUpdate) (*Template, error) {
	if len(upd.Categories) > MaxCategories {
		return nil, ErrTooManyCategories
	}
	m.mu.Lock()
	t := m.templates[id]
	if t == nil {
		m.mu.Unlock()
		return nil, ErrTemplateNotFound
	}
	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.Categories != nil {
		t.Categories = upd.Categories
	}
	snap := t.Clone()
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.PutTemplate(snap); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func (m *Manager) DeleteTemplate(id string) error {
	m.mu.Lock()
	_, ok := m.templates[id]
	if !ok {
		m.mu.Unlock()
		return ErrTemplateNotFound
	}
	delete(m.templates, id)
	m.mu.Unlock()

	if m.store != nil {
		return m.store.DeleteTemplate(id)
	}
	return nil
}

func (m *Manager) putTemplate(t *Template) error {
	m.mu.Lock()
	m.templates[t.ID] = t
	m.mu.Unlock()
	if m.store != nil {
		return m.store.PutTemplate(t)
	}
	return nil
}
