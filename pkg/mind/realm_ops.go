package mind

// SetRealm implements §6's set_realm(X).
func (m *Mind) SetRealm(x string) error {
	return m.realm.SetRealm(x)
}

// CurrentRealm implements §6's current_realm().
func (m *Mind) CurrentRealm() string {
	return m.realm.CurrentRealm()
}

// CreateRealm implements §6's create_realm(X, parent).
func (m *Mind) CreateRealm(x, parent string) error {
	return m.realm.CreateRealm(x, parent)
}
